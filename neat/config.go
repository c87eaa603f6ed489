package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"default_genome"`
	Reproduction ReproductionConfig `yaml:"default_reproduction"`
	SpeciesSet   SpeciesSetConfig   `yaml:"default_species_set"`
	Stagnation   StagnationConfig   `yaml:"default_stagnation"`
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize int   `ini:"pop_size" yaml:"pop_size"`
	Seed    int64 `ini:"seed" yaml:"seed"`       // 0 seeds from the clock
	Workers int   `ini:"workers" yaml:"workers"` // 0 uses GOMAXPROCS
}

// GenomeConfig holds parameters specific to the structure, mutation and
// activation of genomes.
type GenomeConfig struct {
	NumInputs  int `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs int `ini:"num_outputs" yaml:"num_outputs"`

	// --- Mutation ---
	WeightMutateRate  float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate"`   // gate for the whole weight pass
	WeightPerturbRate float64 `ini:"weight_perturb_rate" yaml:"weight_perturb_rate"` // per connection, else replace
	WeightMutatePower float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power"`
	NodeAddProb       float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	ConnAddProb       float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`

	// --- Compatibility ---
	CompatibilityExcessCoefficient   float64 `ini:"compatibility_excess_coefficient" yaml:"compatibility_excess_coefficient"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`
	// Genomes smaller than this are not normalized by their size.
	CompatibilityNormalizeThreshold int `ini:"compatibility_normalize_threshold" yaml:"compatibility_normalize_threshold"`

	// --- Activation ---
	ActivationSteepness     float64 `ini:"activation_steepness" yaml:"activation_steepness"`
	ActivationTolerance     float64 `ini:"activation_tolerance" yaml:"activation_tolerance"`
	MaxActivationIterations int     `ini:"max_activation_iterations" yaml:"max_activation_iterations"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	CrossoverRate             float64 `ini:"crossover_rate" yaml:"crossover_rate"`
	InterspeciesMatingRate    float64 `ini:"interspecies_mating_rate" yaml:"interspecies_mating_rate"`
	InheritedGeneDisabledRate float64 `ini:"inherited_gene_disabled_rate" yaml:"inherited_gene_disabled_rate"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	MaxStagnation int `ini:"max_stagnation" yaml:"max_stagnation"`
}

// DefaultConfig returns the standard parameter set. Input and output counts
// are left at zero and must be supplied by the caller.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize: 150,
		},
		Genome: GenomeConfig{
			WeightMutateRate:                 0.8,
			WeightPerturbRate:                0.9,
			WeightMutatePower:                0.2,
			NodeAddProb:                      0.03,
			ConnAddProb:                      0.05,
			CompatibilityExcessCoefficient:   1.0,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.4,
			CompatibilityNormalizeThreshold:  20,
			ActivationSteepness:              4.9,
			ActivationTolerance:              0.02,
			MaxActivationIterations:          100,
		},
		Reproduction: ReproductionConfig{
			CrossoverRate:             0.75,
			InterspeciesMatingRate:    0.001,
			InheritedGeneDisabledRate: 0.75,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Stagnation: StagnationConfig{
			MaxStagnation: 15,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, or from a YAML
// file when the path ends in .yaml or .yml. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := loadYAML(filePath, config); err != nil {
			return nil, err
		}
	default:
		if err := loadINI(filePath, config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string, config *Config) error {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Map sections to structs
	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	return nil
}

func loadYAML(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	return nil
}

// Validate checks every parameter. All failures wrap ErrConfiguration.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return configError("pop_size must be positive, got %d", c.Neat.PopSize)
	}
	if c.Neat.Workers < 0 {
		return configError("workers cannot be negative")
	}
	if c.Genome.NumInputs <= 0 {
		return configError("num_inputs must be positive, got %d", c.Genome.NumInputs)
	}
	if c.Genome.NumOutputs <= 0 {
		return configError("num_outputs must be positive, got %d", c.Genome.NumOutputs)
	}

	probabilities := []struct {
		name  string
		value float64
	}{
		{"weight_mutate_rate", c.Genome.WeightMutateRate},
		{"weight_perturb_rate", c.Genome.WeightPerturbRate},
		{"node_add_prob", c.Genome.NodeAddProb},
		{"conn_add_prob", c.Genome.ConnAddProb},
		{"crossover_rate", c.Reproduction.CrossoverRate},
		{"interspecies_mating_rate", c.Reproduction.InterspeciesMatingRate},
		{"inherited_gene_disabled_rate", c.Reproduction.InheritedGeneDisabledRate},
	}
	for _, p := range probabilities {
		if p.value < 0 || p.value > 1 {
			return configError("%s must be between 0 and 1", p.name)
		}
	}

	if c.Genome.WeightMutatePower < 0 {
		return configError("weight_mutate_power cannot be negative")
	}
	if c.Genome.CompatibilityExcessCoefficient < 0 {
		return configError("compatibility_excess_coefficient cannot be negative")
	}
	if c.Genome.CompatibilityDisjointCoefficient < 0 {
		return configError("compatibility_disjoint_coefficient cannot be negative")
	}
	if c.Genome.CompatibilityWeightCoefficient < 0 {
		return configError("compatibility_weight_coefficient cannot be negative")
	}
	if c.Genome.CompatibilityNormalizeThreshold < 0 {
		return configError("compatibility_normalize_threshold cannot be negative")
	}
	if c.Genome.ActivationTolerance <= 0 {
		return configError("activation_tolerance must be positive")
	}
	if c.Genome.MaxActivationIterations <= 0 {
		return configError("max_activation_iterations must be positive")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return configError("compatibility_threshold cannot be negative")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return configError("max_stagnation must be positive")
	}
	return nil
}
