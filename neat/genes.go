package neat

import (
	"fmt"
	"math/rand"
)

// --------------------------- NodeType ---------------------------

// NodeType tags a node in a genome. A node's identity is its index in the
// genome's node list.
type NodeType int

const (
	InputNode NodeType = iota
	OutputNode
	HiddenNode
)

func (t NodeType) String() string {
	switch t {
	case InputNode:
		return "input"
	case OutputNode:
		return "output"
	case HiddenNode:
		return "hidden"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionGene identifies a connection by its endpoints. It is a comparable
// value and is used directly as a map key by the innovation registry.
type ConnectionGene struct {
	InNode  int
	OutNode int
}

// String returns a string representation of the ConnectionGene.
func (cg ConnectionGene) String() string {
	return fmt.Sprintf("%d->%d", cg.InNode, cg.OutNode)
}

// --------------------------- Connection ---------------------------

// Connection is a weighted, enable-able instance of a ConnectionGene.
// A Connection belongs to exactly one genome.
type Connection struct {
	Gene    ConnectionGene
	Weight  float64 // always within [-1, 1]
	Enabled bool
}

// NewConnection creates an enabled connection, clamping the weight.
func NewConnection(gene ConnectionGene, weight float64) *Connection {
	c := &Connection{Gene: gene, Enabled: true}
	c.SetWeight(weight)
	return c
}

// SetWeight stores the weight clamped to [-1, 1].
func (c *Connection) SetWeight(w float64) {
	c.Weight = clamp(w, -1.0, 1.0)
}

// Copy creates a deep copy of the Connection.
func (c *Connection) Copy() *Connection {
	return &Connection{
		Gene:    c.Gene,
		Weight:  c.Weight,
		Enabled: c.Enabled,
	}
}

// String returns a string representation of the Connection.
func (c *Connection) String() string {
	return fmt.Sprintf("Conn(%s, Weight: %.3f, Enabled: %t)", c.Gene, c.Weight, c.Enabled)
}

// mutateWeight perturbs the weight with a gaussian sample, or with
// probability 1-perturbRate replaces it with a fresh uniform value.
func (c *Connection) mutateWeight(rng *rand.Rand, perturbRate, power float64) {
	if rng.Float64() < perturbRate {
		c.SetWeight(c.Weight + rng.NormFloat64()*power)
		return
	}
	c.Weight = randomWeight(rng)
}

// --------------------------- Attribute Helpers ---------------------------

// randomWeight draws uniformly from [-1, 1].
func randomWeight(rng *rand.Rand) float64 {
	return 2*rng.Float64() - 1
}
