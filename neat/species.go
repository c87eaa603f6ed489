package neat

// Species tracks a cluster of mutually compatible genomes: its best fitness
// ever, when that last improved, and how many genomes currently belong to it.
// Species are never deleted; a species whose members all left simply has a
// Size of zero.
type Species struct {
	ID           int     // Unique identifier, equal to the species' index in the SpeciesSet.
	Created      int     // Generation number when the species was created.
	LastImproved int     // Last generation where the best fitness improved.
	BestFitness  float64 // Best member fitness ever recorded.
	Size         int     // Current number of members.
}

// NewSpecies creates a new species.
func NewSpecies(id, generation int) *Species {
	return &Species{
		ID:           id,
		Created:      generation,
		LastImproved: generation,
	}
}

// UpdateBest records fitness as the species' best if it beats the previous
// best, resetting the stagnation clock. It reports whether it improved.
func (s *Species) UpdateBest(fitness float64, generation int) bool {
	if fitness > s.BestFitness {
		s.BestFitness = fitness
		s.LastImproved = generation
		return true
	}
	return false
}

// IsStagnant reports whether maxStagnation or more generations have passed
// without improvement.
func (s *Species) IsStagnant(generation, maxStagnation int) bool {
	return generation-s.LastImproved >= maxStagnation
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet is the ordered list of every species created during a run.
type SpeciesSet struct {
	Species []*Species
	Config  *SpeciesSetConfig
}

// NewSpeciesSet creates a species set whose first species holds the whole
// initial population.
func NewSpeciesSet(config *SpeciesSetConfig, popSize, generation int) *SpeciesSet {
	first := NewSpecies(0, generation)
	first.Size = popSize
	return &SpeciesSet{
		Species: []*Species{first},
		Config:  config,
	}
}

// Get returns the species with the given id, or nil.
func (ss *SpeciesSet) Get(id int) *Species {
	if id < 0 || id >= len(ss.Species) {
		return nil
	}
	return ss.Species[id]
}

// Alive returns the species that currently have members, in creation order.
func (ss *SpeciesSet) Alive() []*Species {
	alive := make([]*Species, 0, len(ss.Species))
	for _, s := range ss.Species {
		if s.Size > 0 {
			alive = append(alive, s)
		}
	}
	return alive
}

// Remove takes one member away from a species.
func (ss *SpeciesSet) Remove(id int) {
	if s := ss.Get(id); s != nil && s.Size > 0 {
		s.Size--
	}
}

// Place assigns g to a species and counts it as a member.
//
// Reference genomes are scanned in order and the first genome seen for each
// species acts as that species' representative. g joins the first species
// whose representative is closer than the compatibility threshold. This is
// first-match, not best-match, so the result depends on the order of
// reference. If no species matches a new one is created and g is its
// founder; the returned bool reports that.
func (ss *SpeciesSet) Place(g *Genome, reference []*Genome, generation int, registry *InnovationRegistry) (bool, error) {
	seen := make(map[int]bool, len(ss.Species))
	for _, rep := range reference {
		if seen[rep.SpeciesID] {
			continue
		}
		seen[rep.SpeciesID] = true

		d, err := g.Distance(rep, registry)
		if err != nil {
			return false, err
		}
		if d < ss.Config.CompatibilityThreshold {
			ss.assign(g, rep.SpeciesID)
			return false, nil
		}
	}

	s := NewSpecies(len(ss.Species), generation)
	ss.Species = append(ss.Species, s)
	ss.assign(g, s.ID)
	return true, nil
}

func (ss *SpeciesSet) assign(g *Genome, id int) {
	g.SpeciesID = id
	ss.Species[id].Size++
}
