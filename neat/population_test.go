package neat

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPopulation(t *testing.T, cfg *Config, steps int) *Population {
	t.Helper()
	pop, err := NewPopulation(cfg, &countdownEnv{steps: steps, inputSize: cfg.Genome.NumInputs})
	require.NoError(t, err)
	pop.Logger = discardLogger()
	return pop
}

func assertSpeciesConsistent(t *testing.T, pop *Population) {
	t.Helper()
	counts := make(map[int]int)
	for _, g := range pop.Genomes {
		counts[g.SpeciesID]++
	}
	total := 0
	for _, s := range pop.SpeciesSet.Species {
		assert.Equal(t, counts[s.ID], s.Size, "species %d", s.ID)
		total += s.Size
	}
	assert.Equal(t, len(pop.Genomes), total)
}

func TestNewPopulation(t *testing.T) {
	cfg := testConfig(3, 2)
	pop := newTestPopulation(t, cfg, 3)

	assert.Equal(t, 0, pop.Generation)
	require.Len(t, pop.Genomes, cfg.Neat.PopSize)
	require.Len(t, pop.SpeciesSet.Species, 1)
	assert.Equal(t, cfg.Neat.PopSize, pop.SpeciesSet.Species[0].Size)
	assert.Equal(t, 6, pop.Registry.Size())
	assert.Nil(t, pop.BestGenome)

	for i, g := range pop.Genomes {
		assert.Equal(t, i+1, g.Key)
		assert.Zero(t, g.SpeciesID)
		assert.False(t, pop.Environment(i).IsTerminal())
	}
}

func TestNewPopulationErrors(t *testing.T) {
	env := &countdownEnv{steps: 1, inputSize: 2}

	_, err := NewPopulation(nil, env)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewPopulation(testConfig(2, 1), nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	bad := testConfig(2, 1)
	bad.Neat.PopSize = 0
	_, err = NewPopulation(bad, env)
	assert.ErrorIs(t, err, ErrConfiguration)

	bad = testConfig(0, 1)
	_, err = NewPopulation(bad, env)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestUpdateAdvancesOnlyWhenAllTerminal(t *testing.T) {
	cfg := testConfig(2, 1)
	pop := newTestPopulation(t, cfg, 3)

	for tick := 1; tick <= 2; tick++ {
		advanced, err := pop.Update()
		require.NoError(t, err)
		assert.False(t, advanced)
		assert.Equal(t, 0, pop.Generation)
		assert.False(t, pop.AllTerminal())
	}

	advanced, err := pop.Update()
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, 1, pop.Generation)

	// The new generation starts with fresh episodes.
	assert.False(t, pop.AllTerminal())
	for i := range pop.Genomes {
		assert.Zero(t, pop.Environment(i).(*countdownEnv).taken)
	}
}

func TestRunGenerations(t *testing.T) {
	cfg := testConfig(2, 2)
	cfg.Genome.NodeAddProb = 0.2
	cfg.Genome.ConnAddProb = 0.3
	pop := newTestPopulation(t, cfg, 4)

	for gen := 1; gen <= 6; gen++ {
		require.NoError(t, pop.RunGeneration())
		assert.Equal(t, gen, pop.Generation)
		assert.Len(t, pop.Genomes, cfg.Neat.PopSize)
		assertSpeciesConsistent(t, pop)
	}

	require.NotNil(t, pop.BestGenome)
	assert.Greater(t, pop.BestGenome.Fitness, 0.0)
	assert.GreaterOrEqual(t, pop.Registry.Size(), 4)
}

func TestBestGenomeIsCopy(t *testing.T) {
	cfg := testConfig(2, 1)
	pop := newTestPopulation(t, cfg, 2)
	require.NoError(t, pop.RunGeneration())
	require.NotNil(t, pop.BestGenome)

	best := pop.BestGenome
	for _, g := range pop.Genomes {
		for i := range g.Connections {
			if i < len(best.Connections) {
				assert.NotSame(t, best.Connections[i], g.Connections[i])
			}
		}
	}

	fitness := best.Fitness
	require.NoError(t, pop.RunGeneration())
	assert.GreaterOrEqual(t, pop.BestGenome.Fitness, fitness)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	cfg := testConfig(2, 1)
	pop := newTestPopulation(t, cfg, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, pop.Generation)
}

// cancelAfterEnv cancels a context once a given number of episodes has been
// started.
type cancelAfterEnv struct {
	countdownEnv
	resets *int
	limit  int
	cancel context.CancelFunc
}

func (e *cancelAfterEnv) Reset() Environment {
	*e.resets++
	if *e.resets >= e.limit {
		e.cancel()
	}
	return &countdownEnv{steps: e.steps, inputSize: e.inputSize}
}

func TestRunFinishesGenerationBeforeStopping(t *testing.T) {
	cfg := testConfig(2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resets := 0
	env := &cancelAfterEnv{
		countdownEnv: countdownEnv{steps: 2, inputSize: 2},
		resets:       &resets,
		// Episodes of generation 0 and 1 are created, then generation 2's
		// first episode triggers the cancel.
		limit:  2*cfg.Neat.PopSize + 1,
		cancel: cancel,
	}
	pop, err := NewPopulation(cfg, env)
	require.NoError(t, err)
	pop.Logger = discardLogger()

	err = pop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, pop.Generation)
	assert.Len(t, pop.Genomes, cfg.Neat.PopSize)
}

func TestPopulationIsDeterministic(t *testing.T) {
	run := func() *Population {
		cfg := testConfig(3, 2)
		cfg.Genome.NodeAddProb = 0.2
		cfg.Genome.ConnAddProb = 0.3
		pop := newTestPopulation(t, cfg, 3)
		for i := 0; i < 4; i++ {
			require.NoError(t, pop.RunGeneration())
		}
		return pop
	}

	a, b := run(), run()
	require.Len(t, b.Genomes, len(a.Genomes))
	for i := range a.Genomes {
		assert.Equal(t, a.Genomes[i].Nodes, b.Genomes[i].Nodes)
		assert.Equal(t, a.Genomes[i].Connections, b.Genomes[i].Connections)
		assert.Equal(t, a.Genomes[i].SpeciesID, b.Genomes[i].SpeciesID)
	}
	assert.Equal(t, a.Registry.Size(), b.Registry.Size())
	assert.Equal(t, a.BestGenome.Fitness, b.BestGenome.Fitness)
}

type wrongSizeEnv struct{ countdownEnv }

func (e *wrongSizeEnv) Reset() Environment {
	return &wrongSizeEnv{countdownEnv{steps: e.steps, inputSize: e.inputSize}}
}

func (e *wrongSizeEnv) Sense() []float64 { return []float64{1} }

func TestUpdateReportsInputSizeMismatch(t *testing.T) {
	cfg := testConfig(3, 1)
	pop, err := NewPopulation(cfg, &wrongSizeEnv{countdownEnv{steps: 2, inputSize: 3}})
	require.NoError(t, err)
	pop.Logger = discardLogger()

	_, err = pop.Update()
	assert.ErrorIs(t, err, ErrInputSize)
	assert.Equal(t, 0, pop.Generation)
}

func TestMeanFitness(t *testing.T) {
	pop := &Population{}
	assert.Zero(t, pop.MeanFitness())

	pop.Genomes = []*Genome{{Fitness: 1}, {Fitness: 3}}
	assert.Equal(t, 4.0, pop.FitnessSum())
	assert.Equal(t, 2.0, pop.MeanFitness())
}

func TestCreationRecordUsesInstalledLogger(t *testing.T) {
	cfg := testConfig(2, 1)
	pop, err := NewPopulation(cfg, &countdownEnv{steps: 2, inputSize: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	pop.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	require.NoError(t, pop.RunGeneration())
	require.NoError(t, pop.RunGeneration())

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "population created"))
	assert.Equal(t, 2, strings.Count(out, "generation complete"))
	assert.Contains(t, out, "run_id="+pop.RunID.String())
	assert.Contains(t, out, "seed=7")
	assert.Contains(t, out, "fitness_stdev=")
}
