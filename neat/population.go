package neat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// Population holds the state of the NEAT evolutionary process.
//
// A generation runs in two phases. While Evaluating, every genome that has
// not finished its episode steps its own Environment once per Update call,
// using its network's output as the decision. Once every episode is terminal
// the population reproduces: fitness is collected, the next generation is
// bred into the same number of slots, and the generation counter advances.
// There is no final state; callers stop the loop.
type Population struct {
	Config       *Config
	Genomes      []*Genome // Current generation, one genome per slot.
	Registry     *InnovationRegistry
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome // Copy of the fittest genome seen so far.
	RunID        uuid.UUID
	Logger       *slog.Logger

	prototype Environment
	envs      []Environment
	networks  []*Network
	rng       *rand.Rand
	started   time.Time
	capHits   atomic.Int64
	seed      int64
	announced bool
}

// NewPopulation creates a new Population whose genomes are evaluated against
// fresh episodes of env.
func NewPopulation(config *Config, env Environment) (*Population, error) {
	if config == nil {
		return nil, configError("config is nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, configError("environment is nil")
	}

	seed := config.Neat.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	registry := NewInnovationRegistry()
	reproduction := NewReproduction(&config.Reproduction)

	p := &Population{
		Config:       config,
		Genomes:      reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize, registry, rng),
		Registry:     registry,
		SpeciesSet:   NewSpeciesSet(&config.SpeciesSet, config.Neat.PopSize, 0),
		Reproduction: reproduction,
		Stagnation:   NewStagnation(&config.Stagnation),
		Generation:   0,
		RunID:        uuid.New(),
		Logger:       slog.Default(),
		prototype:    env,
		rng:          rng,
		seed:         seed,
	}
	p.resetEpisodes()
	return p, nil
}

// announce logs the run's opening record once, on the first tick.
func (p *Population) announce() {
	if p.announced {
		return
	}
	p.announced = true
	p.log().Info("population created",
		"pop_size", p.Config.Neat.PopSize,
		"inputs", p.Config.Genome.NumInputs,
		"outputs", p.Config.Genome.NumOutputs,
		"seed", p.seed,
	)
}

func (p *Population) log() *slog.Logger {
	return p.Logger.With("run_id", p.RunID.String())
}

func (p *Population) workers() int {
	if p.Config.Neat.Workers > 0 {
		return p.Config.Neat.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// resetEpisodes gives every slot a fresh environment and compiles its network.
func (p *Population) resetEpisodes() {
	p.envs = make([]Environment, len(p.Genomes))
	p.networks = make([]*Network, len(p.Genomes))
	for i, g := range p.Genomes {
		p.envs[i] = p.prototype.Reset()
		p.networks[i] = NewNetwork(g)
	}
	p.capHits.Store(0)
	p.started = time.Now()
}

// Environment returns the environment of slot i in the current generation.
func (p *Population) Environment(i int) Environment {
	return p.envs[i]
}

// AllTerminal reports whether every episode of the current generation ended.
func (p *Population) AllTerminal() bool {
	for _, env := range p.envs {
		if !env.IsTerminal() {
			return false
		}
	}
	return true
}

// Update performs one Evaluating tick and, if every episode is then terminal,
// one reproduction pass. It reports whether a new generation was installed.
func (p *Population) Update() (bool, error) {
	p.announce()
	if err := p.step(); err != nil {
		return false, err
	}
	if !p.AllTerminal() {
		return false, nil
	}
	if err := p.nextGeneration(); err != nil {
		return false, err
	}
	return true, nil
}

// step advances every unfinished episode by one tick on the worker pool.
// Tasks touch only their own slot.
func (p *Population) step() error {
	wp := pool.New().WithErrors().WithMaxGoroutines(p.workers())
	for i := range p.Genomes {
		env, net := p.envs[i], p.networks[i]
		if env.IsTerminal() {
			continue
		}
		key := p.Genomes[i].Key
		wp.Go(func() error {
			decision, err := net.Activate(env.Sense())
			if err != nil {
				return fmt.Errorf("genome %d: %w", key, err)
			}
			if !net.Converged() {
				p.capHits.Add(1)
			}
			env.Step(decision)
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return fmt.Errorf("evaluation failed in generation %d: %w", p.Generation, err)
	}
	return nil
}

// RunGeneration calls Update until the generation counter advances.
func (p *Population) RunGeneration() error {
	start := p.Generation
	for p.Generation == start {
		if _, err := p.Update(); err != nil {
			return err
		}
	}
	return nil
}

// Run evolves generation after generation until ctx is done. Cancellation is
// only observed between generations; Run then returns ctx.Err().
func (p *Population) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.log().Info("run stopped", "generation", p.Generation)
			return ctx.Err()
		default:
		}
		if err := p.RunGeneration(); err != nil {
			return err
		}
	}
}

// nextGeneration scores the finished generation and replaces it.
func (p *Population) nextGeneration() error {
	logger := p.log()

	stagnant := p.Stagnation.Evaluate(p.Genomes, p.envs, p.SpeciesSet, p.Generation)
	for _, id := range stagnant {
		logger.Debug("species stagnant, fitness zeroed", "generation", p.Generation, "species", id)
	}

	fitnesses := make([]float64, len(p.Genomes))
	var best *Genome
	for i, g := range p.Genomes {
		fitnesses[i] = g.Fitness
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	if best != nil && (p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = best.Clone(best.Key)
	}

	if hits := p.capHits.Load(); hits > 0 {
		logger.Debug("activation iteration cap reached", "generation", p.Generation, "activations", hits)
	}
	logger.Info("generation complete",
		"generation", p.Generation,
		"mean_fitness", Mean(fitnesses),
		"fitness_stdev", Stdev(fitnesses),
		"best_fitness", MaxFloat(fitnesses),
		"species", len(p.SpeciesSet.Alive()),
		"innovations", humanize.Comma(int64(p.Registry.Size())),
		"elapsed", time.Since(p.started).Round(time.Millisecond),
	)

	next, founded, err := p.Reproduction.Reproduce(p.Genomes, p.SpeciesSet, p.Registry, p.rng, p.Generation)
	if err != nil {
		return fmt.Errorf("reproduction failed in generation %d: %w", p.Generation, err)
	}
	for _, id := range founded {
		logger.Debug("species created", "generation", p.Generation, "species", id)
	}

	p.Genomes = next
	p.Generation++
	p.resetEpisodes()
	return nil
}

// FitnessSum is the total cached fitness of the current genomes.
func (p *Population) FitnessSum() float64 {
	sum := 0.0
	for _, g := range p.Genomes {
		sum += g.Fitness
	}
	return sum
}

// MeanFitness is the average cached fitness of the current genomes.
func (p *Population) MeanFitness() float64 {
	if len(p.Genomes) == 0 {
		return 0
	}
	return p.FitnessSum() / float64(len(p.Genomes))
}
