package neat

import (
	"fmt"
	"math"
)

// link is an enabled incoming connection of a node.
type link struct {
	Source int
	Weight float64
}

// Network is the runnable phenotype of a genome. Cycles are allowed, so it is
// evaluated by relaxing node values towards a fixed point instead of a single
// topologically ordered pass.
type Network struct {
	numInputs  int
	numOutputs int
	incoming   [][]link // per node, enabled connections ending at it
	activation func(float64) float64
	tolerance  float64
	maxIter    int

	lastIterations int
	lastConverged  bool
}

// NewNetwork compiles a genome into a Network. The network keeps no reference
// to the genome.
func NewNetwork(g *Genome) *Network {
	net := &Network{
		numInputs:  g.Config.NumInputs,
		numOutputs: g.Config.NumOutputs,
		incoming:   make([][]link, len(g.Nodes)),
		activation: SteepenedSigmoid(g.Config.ActivationSteepness),
		tolerance:  g.Config.ActivationTolerance,
		maxIter:    g.Config.MaxActivationIterations,
	}
	for _, c := range g.Connections {
		if !c.Enabled {
			continue
		}
		out := c.Gene.OutNode
		net.incoming[out] = append(net.incoming[out], link{Source: c.Gene.InNode, Weight: c.Weight})
	}
	return net
}

// Activate computes the output vector for an input vector of length equal to
// the genome's input count.
//
// Inputs seed the input nodes; all other nodes start at 0. Each pass
// recomputes every non-input node from the previous pass's values, and
// relaxation stops once the summed relative change across non-input nodes
// drops below the tolerance. If the iteration cap is reached first the last
// computed values are returned and Converged reports false.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.numInputs {
		return nil, fmt.Errorf("%w: got %d inputs, network has %d", ErrInputSize, len(inputs), net.numInputs)
	}

	values := make([]float64, len(net.incoming))
	copy(values, inputs)
	prev := make([]float64, len(values))

	net.lastConverged = false
	net.lastIterations = 0
	for net.lastIterations < net.maxIter {
		copy(prev, values)
		change := 0.0
		for node := net.numInputs; node < len(values); node++ {
			sum := 0.0
			for _, l := range net.incoming[node] {
				sum += prev[l.Source] * l.Weight
			}
			values[node] = net.activation(sum)
			change += relativeChange(prev[node], values[node])
		}
		net.lastIterations++
		if change < net.tolerance {
			net.lastConverged = true
			break
		}
	}

	outputs := make([]float64, net.numOutputs)
	copy(outputs, values[net.numInputs:net.numInputs+net.numOutputs])
	return outputs, nil
}

// Converged reports whether the last Activate call reached the tolerance
// before the iteration cap.
func (net *Network) Converged() bool { return net.lastConverged }

// Iterations is the number of relaxation passes of the last Activate call.
func (net *Network) Iterations() int { return net.lastIterations }

// relativeChange is |cur-prev| scaled by the larger magnitude of the two.
func relativeChange(prev, cur float64) float64 {
	scale := math.Max(math.Abs(prev), math.Abs(cur))
	if scale == 0 {
		return 0
	}
	return math.Abs(cur-prev) / scale
}

// Activate builds a network for the genome and runs it once.
func (g *Genome) Activate(inputs []float64) ([]float64, error) {
	return NewNetwork(g).Activate(inputs)
}
