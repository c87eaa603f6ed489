package neat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewInnovationRegistry()

	a := ConnectionGene{InNode: 0, OutNode: 3}
	b := ConnectionGene{InNode: 1, OutNode: 3}

	assert.Equal(t, 0, r.Register(a))
	assert.Equal(t, 1, r.Register(b))
	assert.Equal(t, 0, r.Register(a))
	assert.Equal(t, 1, r.Register(b))
	assert.Equal(t, 2, r.Size())

	n, ok := r.Lookup(b)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = r.Lookup(ConnectionGene{InNode: 9, OutNode: 9})
	assert.False(t, ok)
}

func TestRegisterNumbersAreGapFree(t *testing.T) {
	r := NewInnovationRegistry()
	for i := 0; i < 50; i++ {
		n := r.Register(ConnectionGene{InNode: i, OutNode: i + 100})
		require.Equal(t, i, n)
	}
	assert.Equal(t, 50, r.Size())
}

func TestRegisterConcurrentSameGene(t *testing.T) {
	r := NewInnovationRegistry()

	genes := make([]ConnectionGene, 40)
	for i := range genes {
		genes[i] = ConnectionGene{InNode: i % 7, OutNode: i}
	}

	const workers = 16
	results := make([][]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			nums := make([]int, len(genes))
			// Each worker walks the genes from a different offset.
			for i := range genes {
				j := (i + w) % len(genes)
				nums[j] = r.Register(genes[j])
			}
			results[w] = nums
		}(w)
	}
	wg.Wait()

	require.Equal(t, len(genes), r.Size())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}

	seen := make(map[int]bool)
	for _, n := range results[0] {
		assert.False(t, seen[n], "number %d assigned twice", n)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, len(genes))
		seen[n] = true
	}
}
