package neat

import (
	"fmt"
	"math"
	"math/rand"
)

// Genome represents an individual organism in the population.
// Node identity is the index into Nodes: indices [0,I) are inputs, [I,I+O)
// are outputs and everything after that is hidden. Indices are never reused.
type Genome struct {
	Key         int           // Unique identifier for this genome.
	Nodes       []NodeType    // Node types in creation order.
	Connections []*Connection // Owned outright; never shared with another genome.
	SpeciesID   int
	Fitness     float64
	Config      *GenomeConfig
}

// NewGenome creates a fully connected genome: every input feeds every output
// with a uniform random weight. Each gene is registered with the registry.
func NewGenome(key int, config *GenomeConfig, registry *InnovationRegistry, rng *rand.Rand) *Genome {
	g := &Genome{
		Key:         key,
		Nodes:       make([]NodeType, 0, config.NumInputs+config.NumOutputs),
		Connections: make([]*Connection, 0, config.NumInputs*config.NumOutputs),
		Config:      config,
	}

	for i := 0; i < config.NumInputs; i++ {
		g.Nodes = append(g.Nodes, InputNode)
	}
	for out := config.NumInputs; out < config.NumInputs+config.NumOutputs; out++ {
		g.Nodes = append(g.Nodes, OutputNode)
		for in := 0; in < config.NumInputs; in++ {
			gene := ConnectionGene{InNode: in, OutNode: out}
			registry.Register(gene)
			g.Connections = append(g.Connections, NewConnection(gene, randomWeight(rng)))
		}
	}
	return g
}

// Clone returns a deep copy of the genome under a new key.
func (g *Genome) Clone(key int) *Genome {
	clone := &Genome{
		Key:         key,
		Nodes:       make([]NodeType, len(g.Nodes)),
		Connections: make([]*Connection, len(g.Connections)),
		SpeciesID:   g.SpeciesID,
		Fitness:     g.Fitness,
		Config:      g.Config,
	}
	copy(clone.Nodes, g.Nodes)
	for i, c := range g.Connections {
		clone.Connections[i] = c.Copy()
	}
	return clone
}

// String returns a short summary of the genome.
func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Key: %d, Nodes: %d, Connections: %d, Species: %d, Fitness: %.3f)",
		g.Key, len(g.Nodes), len(g.Connections), g.SpeciesID, g.Fitness)
}

// --------------------------- Mutation ---------------------------

// Mutate applies add-node, then add-connection, then the weight pass, each
// behind its own probability gate.
func (g *Genome) Mutate(rng *rand.Rand, registry *InnovationRegistry) {
	if rng.Float64() < g.Config.NodeAddProb {
		g.MutateAddNode(rng, registry)
	}
	if rng.Float64() < g.Config.ConnAddProb {
		g.MutateAddConnection(rng, registry)
	}
	if rng.Float64() < g.Config.WeightMutateRate {
		g.MutateWeights(rng)
	}
}

// MutateWeights perturbs or replaces the weight of every connection.
func (g *Genome) MutateWeights(rng *rand.Rand) {
	for _, c := range g.Connections {
		c.mutateWeight(rng, g.Config.WeightPerturbRate, g.Config.WeightMutatePower)
	}
}

// MutateAddNode splits a random connection: the connection is disabled and
// replaced by in->new (weight 1) and new->out (the old weight).
// It reports false if the genome has no connection to split.
func (g *Genome) MutateAddNode(rng *rand.Rand, registry *InnovationRegistry) bool {
	if len(g.Connections) == 0 {
		return false
	}

	old := g.Connections[rng.Intn(len(g.Connections))]
	old.Enabled = false

	newNode := len(g.Nodes)
	g.Nodes = append(g.Nodes, HiddenNode)

	toNew := ConnectionGene{InNode: old.Gene.InNode, OutNode: newNode}
	fromNew := ConnectionGene{InNode: newNode, OutNode: old.Gene.OutNode}
	registry.Register(toNew)
	registry.Register(fromNew)

	g.Connections = append(g.Connections,
		NewConnection(toNew, 1.0),
		NewConnection(fromNew, old.Weight),
	)
	return true
}

// MutateAddConnection adds one connection between a pair of nodes that is not
// yet connected. Connections never start at an output node, never end at an
// input node and never loop onto their source. It reports false when no such
// pair exists.
func (g *Genome) MutateAddConnection(rng *rand.Rand, registry *InnovationRegistry) bool {
	candidates := g.openConnections()
	if len(candidates) == 0 {
		return false
	}

	gene := candidates[rng.Intn(len(candidates))]
	registry.Register(gene)
	g.Connections = append(g.Connections, NewConnection(gene, randomWeight(rng)))
	return true
}

// openConnections enumerates every legal gene the genome does not hold yet,
// in node index order.
func (g *Genome) openConnections() []ConnectionGene {
	existing := make(map[ConnectionGene]struct{}, len(g.Connections))
	for _, c := range g.Connections {
		existing[c.Gene] = struct{}{}
	}

	var open []ConnectionGene
	for in, inType := range g.Nodes {
		if inType == OutputNode {
			continue
		}
		for out, outType := range g.Nodes {
			if outType == InputNode || in == out {
				continue
			}
			gene := ConnectionGene{InNode: in, OutNode: out}
			if _, ok := existing[gene]; !ok {
				open = append(open, gene)
			}
		}
	}
	return open
}

// --------------------------- Alignment ---------------------------

// alignment indexes a genome's connections by innovation number.
// innovations[i] is the number of the genome's i-th connection.
type alignment struct {
	byInnovation  map[int]*Connection
	innovations   []int
	maxInnovation int
}

func (g *Genome) align(op string, registry *InnovationRegistry) (alignment, error) {
	a := alignment{
		byInnovation:  make(map[int]*Connection, len(g.Connections)),
		innovations:   make([]int, len(g.Connections)),
		maxInnovation: -1,
	}
	for i, c := range g.Connections {
		n, err := registry.innovation(op, c.Gene)
		if err != nil {
			return alignment{}, err
		}
		a.byInnovation[n] = c
		a.innovations[i] = n
		if n > a.maxInnovation {
			a.maxInnovation = n
		}
	}
	return a, nil
}

// Distance calculates the compatibility distance between this genome and
// another:
//
//	d = (c1*E + c2*D) / N + c3*W
//
// where E is the excess gene count, D the disjoint gene count, W the mean
// absolute weight difference of matching genes and N the size of the larger
// genome (1 for genomes below the normalize threshold). Genes are aligned by
// innovation number.
func (g *Genome) Distance(other *Genome, registry *InnovationRegistry) (float64, error) {
	a, err := g.align("distance", registry)
	if err != nil {
		return 0, withGenome(err, g)
	}
	b, err := other.align("distance", registry)
	if err != nil {
		return 0, withGenome(err, other)
	}

	// Summed in connection order so the result is bit-for-bit reproducible.
	matching := 0
	weightDiffSum := 0.0
	for i, ca := range g.Connections {
		if cb, ok := b.byInnovation[a.innovations[i]]; ok {
			matching++
			weightDiffSum += math.Abs(ca.Weight - cb.Weight)
		}
	}

	larger, smallerMax := a, b.maxInnovation
	if b.maxInnovation > a.maxInnovation {
		larger, smallerMax = b, a.maxInnovation
	}
	excess := 0
	for n := range larger.byInnovation {
		if n > smallerMax {
			excess++
		}
	}
	nonMatching := len(a.byInnovation) + len(b.byInnovation) - 2*matching
	disjoint := nonMatching - excess

	n := max(len(g.Connections), len(other.Connections))
	if n < g.Config.CompatibilityNormalizeThreshold {
		n = 1
	}

	distance := (g.Config.CompatibilityExcessCoefficient*float64(excess) +
		g.Config.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(n)
	if matching > 0 {
		distance += g.Config.CompatibilityWeightCoefficient * weightDiffSum / float64(matching)
	}
	return distance, nil
}

// Crossover creates a child genome from two parents. Matching genes are
// inherited from either parent with equal probability; a matching gene that
// is disabled in either parent stays disabled with probability disabledRate
// and is re-enabled otherwise. Disjoint and excess genes, the node list and
// the species tag all come from the fitter parent; parentA wins ties.
// Parents are never modified.
func Crossover(childKey int, parentA, parentB *Genome, disabledRate float64, rng *rand.Rand, registry *InnovationRegistry) (*Genome, error) {
	fitter, other := parentA, parentB
	if parentB.Fitness > parentA.Fitness {
		fitter, other = parentB, parentA
	}

	otherAlign, err := other.align("crossover", registry)
	if err != nil {
		return nil, withGenome(err, other)
	}

	child := &Genome{
		Key:         childKey,
		Nodes:       make([]NodeType, len(fitter.Nodes)),
		Connections: make([]*Connection, 0, len(fitter.Connections)),
		SpeciesID:   fitter.SpeciesID,
		Config:      fitter.Config,
	}
	copy(child.Nodes, fitter.Nodes)

	for _, fc := range fitter.Connections {
		n, err := registry.innovation("crossover", fc.Gene)
		if err != nil {
			return nil, withGenome(err, fitter)
		}

		oc, matching := otherAlign.byInnovation[n]
		if !matching {
			child.Connections = append(child.Connections, fc.Copy())
			continue
		}

		inherited := fc.Copy()
		if rng.Intn(2) == 1 {
			inherited = oc.Copy()
		}
		if !fc.Enabled || !oc.Enabled {
			inherited.Enabled = rng.Float64() >= disabledRate
		}
		child.Connections = append(child.Connections, inherited)
	}
	return child, nil
}
