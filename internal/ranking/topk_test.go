package ranking

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopKKeepsBest(t *testing.T) {
	top := NewTopK(3, func(a, b int) bool { return a > b })
	for _, v := range []int{5, 1, 9, 3, 7, 2} {
		top.Add(v)
	}
	assert.Equal(t, []int{9, 7, 5}, top.Items())
}

func TestTopKRejectsWhenNotBetterThanWorst(t *testing.T) {
	top := NewTopK(2, func(a, b int) bool { return a > b })
	require.True(t, top.Add(4))
	require.True(t, top.Add(6))
	assert.False(t, top.Add(4), "ties with the worst are rejected")
	assert.False(t, top.Add(1))
	assert.True(t, top.Add(5))
	assert.Equal(t, []int{6, 5}, top.Items())
}

func TestTopKZeroK(t *testing.T) {
	top := NewTopK(0, func(a, b int) bool { return a > b })
	assert.False(t, top.Add(1))
	assert.Empty(t, top.Items())
}

type item struct {
	weight int
	seq    int
}

func TestTopKMatchesStableSort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	less := func(a, b item) bool { return a.weight > b.weight }

	for round := 0; round < 200; round++ {
		n := rng.Intn(120)
		k := 1 + rng.Intn(40)
		input := make([]item, n)
		for i := range input {
			input[i] = item{weight: rng.Intn(15), seq: i}
		}

		top := NewTopK(k, less)
		for _, it := range input {
			top.Add(it)
		}

		sorted := append([]item{}, input...)
		sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
		if len(sorted) > k {
			sorted = sorted[:k]
		}
		require.Equal(t, sorted, top.Items(), fmt.Sprintf("round %d n=%d k=%d", round, n, k))
	}
}

func TestTopKCandidates(t *testing.T) {
	top := NewTopK(2, Before)
	top.Add(&Candidate{Text: "cars", Weight: 3})
	top.Add(&Candidate{Text: "cats", Weight: 5})
	top.Add(&Candidate{Text: "card", Weight: 3})
	assert.Equal(t, []string{"cats", "card"}, List(top.Items()).Texts())
}

func BenchmarkTopKAdd(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	weights := make([]float64, 4096)
	for i := range weights {
		weights[i] = rng.Float64() * 100
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		top := NewTopK(4, func(a, b float64) bool { return a > b })
		for _, w := range weights {
			top.Add(w)
		}
	}
}
