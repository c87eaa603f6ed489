package neat

// Stagnation scores a finished generation and suppresses species that have
// stopped improving.
type Stagnation struct {
	Config *StagnationConfig
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) *Stagnation {
	return &Stagnation{Config: config}
}

// Evaluate sets each genome's Fitness from its finished environment.
//
// While more than one species is alive, members of a stagnant species get a
// fitness of 0 for this pass, which removes them from roulette selection.
// Every other species records its best member fitness, which may reset its
// stagnation clock. The ids of the suppressed species are returned.
func (s *Stagnation) Evaluate(genomes []*Genome, envs []Environment, speciesSet *SpeciesSet, generation int) []int {
	suppress := len(speciesSet.Alive()) > 1

	stagnant := make(map[int]bool)
	var stagnantIDs []int
	best := make(map[int]float64)
	for i, g := range genomes {
		sp := speciesSet.Get(g.SpeciesID)
		if suppress && sp != nil && sp.IsStagnant(generation, s.Config.MaxStagnation) {
			g.Fitness = 0
			if !stagnant[sp.ID] {
				stagnant[sp.ID] = true
				stagnantIDs = append(stagnantIDs, sp.ID)
			}
			continue
		}

		g.Fitness = envs[i].Fitness()
		if f, ok := best[g.SpeciesID]; !ok || g.Fitness > f {
			best[g.SpeciesID] = g.Fitness
		}
	}

	for id, f := range best {
		if sp := speciesSet.Get(id); sp != nil {
			sp.UpdateBest(f, generation)
		}
	}
	return stagnantIDs
}
