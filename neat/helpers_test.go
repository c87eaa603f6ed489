package neat

import (
	"io"
	"log/slog"
	"math/rand"
)

func testConfig(inputs, outputs int) *Config {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 20
	cfg.Neat.Seed = 7
	cfg.Neat.Workers = 4
	cfg.Genome.NumInputs = inputs
	cfg.Genome.NumOutputs = outputs
	return cfg
}

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// manualGenome builds a genome from explicit connections, registering genes
// in the order given.
func manualGenome(key int, cfg *GenomeConfig, registry *InnovationRegistry, nodes []NodeType, conns ...*Connection) *Genome {
	for _, c := range conns {
		registry.Register(c.Gene)
	}
	return &Genome{
		Key:         key,
		Nodes:       nodes,
		Connections: conns,
		Config:      cfg,
	}
}

func geneSet(g *Genome) map[ConnectionGene]bool {
	set := make(map[ConnectionGene]bool, len(g.Connections))
	for _, c := range g.Connections {
		set[c.Gene] = true
	}
	return set
}

// countdownEnv ends after a fixed number of steps. Its fitness is the sum of
// the first output over the episode.
type countdownEnv struct {
	steps     int
	taken     int
	total     float64
	inputSize int
}

func (e *countdownEnv) Reset() Environment {
	return &countdownEnv{steps: e.steps, inputSize: e.inputSize}
}

func (e *countdownEnv) Sense() []float64 {
	in := make([]float64, e.inputSize)
	for i := range in {
		in[i] = float64(e.taken+i) / 10
	}
	return in
}

func (e *countdownEnv) Step(decision []float64) {
	e.total += decision[0]
	e.taken++
}

func (e *countdownEnv) IsTerminal() bool { return e.taken >= e.steps }

func (e *countdownEnv) Fitness() float64 { return e.total }
