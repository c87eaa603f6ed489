package neat

import "sync"

// InnovationRegistry assigns historical markings to connection genes.
// Numbers are handed out in first-seen order starting at 0 and never change.
// The registry is append-only and safe for concurrent use.
type InnovationRegistry struct {
	mu      sync.Mutex
	numbers map[ConnectionGene]int
}

// NewInnovationRegistry creates an empty registry.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{numbers: make(map[ConnectionGene]int)}
}

// Register returns the innovation number of gene, assigning the next free
// number if the gene has not been seen before.
func (r *InnovationRegistry) Register(gene ConnectionGene) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.numbers[gene]; ok {
		return n
	}
	n := len(r.numbers)
	r.numbers[gene] = n
	return n
}

// Lookup returns the innovation number of an already registered gene.
func (r *InnovationRegistry) Lookup(gene ConnectionGene) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.numbers[gene]
	return n, ok
}

// Size is the number of distinct genes registered so far.
func (r *InnovationRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.numbers)
}

// innovation looks up gene and reports an InvariantError when it is missing.
func (r *InnovationRegistry) innovation(op string, gene ConnectionGene) (int, error) {
	n, ok := r.Lookup(gene)
	if !ok {
		return 0, &InvariantError{Op: op, Gene: gene}
	}
	return n, nil
}
