package neat

import (
	"math/rand"
)

// Reproduction handles the creation of new genomes, either from scratch or
// through selection, crossover and mutation.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int // State for the next genome key
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1, // Start genome keys at 1
	}
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates the initial genomes, all in species 0.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int, registry *InnovationRegistry, rng *rand.Rand) []*Genome {
	genomes := make([]*Genome, popSize)
	for i := range genomes {
		genomes[i] = NewGenome(r.getNextKey(), genomeConfig, registry, rng)
	}
	return genomes
}

// SelectParent picks a parent by roulette selection over the genomes that
// share reference's species, or over the whole population with the
// interspecies mating probability. Fitness is accumulated in population order
// and the first genome whose running total reaches a uniform draw over the
// eligible total is returned. Negative fitness counts as zero. When the
// eligible total is zero the pick is uniform among the eligible genomes.
func (r *Reproduction) SelectParent(reference *Genome, genomes []*Genome, rng *rand.Rand) *Genome {
	interspecies := rng.Float64() < r.Config.InterspeciesMatingRate

	eligible := genomes
	if !interspecies {
		eligible = make([]*Genome, 0, len(genomes))
		for _, g := range genomes {
			if g.SpeciesID == reference.SpeciesID {
				eligible = append(eligible, g)
			}
		}
		if len(eligible) == 0 {
			eligible = genomes
		}
	}

	total := 0.0
	for _, g := range eligible {
		total += max(g.Fitness, 0)
	}
	if total <= 0 {
		return eligible[rng.Intn(len(eligible))]
	}

	target := rng.Float64() * total
	cumulative := 0.0
	for _, g := range eligible {
		cumulative += max(g.Fitness, 0)
		if cumulative >= target {
			return g
		}
	}
	return eligible[len(eligible)-1]
}

// Reproduce builds the next generation slot by slot. Each slot either crosses
// two selected parents or clones the slot's current genome; the result is
// mutated and placed into a species. Parents are never modified and no
// connection is shared between generations. It returns the new genomes and
// the ids of species founded during the pass.
func (r *Reproduction) Reproduce(genomes []*Genome, speciesSet *SpeciesSet, registry *InnovationRegistry, rng *rand.Rand, generation int) ([]*Genome, []int, error) {
	next := make([]*Genome, len(genomes))

	// Species founded in this pass become candidates for later slots.
	reference := make([]*Genome, len(genomes), len(genomes)+8)
	copy(reference, genomes)
	var founded []int

	for i, current := range genomes {
		var child *Genome
		if rng.Float64() < r.Config.CrossoverRate {
			parent1 := r.SelectParent(current, genomes, rng)
			parent2 := r.SelectParent(current, genomes, rng)

			var err error
			child, err = Crossover(r.getNextKey(), parent1, parent2, r.Config.InheritedGeneDisabledRate, rng, registry)
			if err != nil {
				return nil, nil, atGeneration(err, generation)
			}
		} else {
			child = current.Clone(r.getNextKey())
		}
		child.Fitness = 0
		child.Mutate(rng, registry)

		speciesSet.Remove(current.SpeciesID)
		created, err := speciesSet.Place(child, reference, generation, registry)
		if err != nil {
			return nil, nil, atGeneration(err, generation)
		}
		if created {
			reference = append(reference, child)
			founded = append(founded, child.SpeciesID)
		}
		next[i] = child
	}
	return next, founded, nil
}
