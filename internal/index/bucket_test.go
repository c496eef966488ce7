package index

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketCountsOccurrences(t *testing.T) {
	b := NewBucket(5, 5, nil)
	for _, q := range []string{"cats", "cars", "cats"} {
		require.True(t, b.Add(q))
	}
	assert.Equal(t, 2.0, b.Frequency("cats"))
	assert.Equal(t, 1.0, b.Frequency("cars"))
	assert.Equal(t, 0.0, b.Frequency("dogs"))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Unique())
	assert.False(t, b.Full())
}

func TestBucketRejectsAtPerKeyCap(t *testing.T) {
	b := NewBucket(10, 2, nil)
	assert.True(t, b.Add("cats"))
	assert.True(t, b.Add("cats"))
	assert.False(t, b.Add("cats"), "third occurrence exceeds the per-key cap")
	assert.Equal(t, 2.0, b.Frequency("cats"))
	assert.Equal(t, 2, b.Len())
}

func TestBucketEvictsOldestWhenFull(t *testing.T) {
	b := NewBucket(3, 3, nil)
	var evicted []string
	b.OnEvict(func(q string) { evicted = append(evicted, q) })

	for _, q := range []string{"a", "b", "c", "d"} {
		b.Add(q)
	}
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, 0.0, b.Frequency("a"))
	assert.Equal(t, 3, b.Len())
	assert.True(t, b.Full())
}

func TestBucketRejectedAddDoesNotEvict(t *testing.T) {
	b := NewBucket(2, 1, nil)
	evictions := 0
	b.OnEvict(func(string) { evictions++ })
	b.Add("a")
	b.Add("b")
	assert.False(t, b.Add("b"))
	assert.Equal(t, 0, evictions)
	assert.Equal(t, 1.0, b.Frequency("a"))
}

func TestBucketChainingForwardsOldest(t *testing.T) {
	a := NewBucket(3, 3, nil)
	b := NewBucket(10, 10, nil)
	Chain(a, b)

	for _, q := range []string{"x", "y", "z", "x"} {
		a.Add(q)
	}
	assert.Equal(t, 1, b.Len(), "exactly one eviction forwarded")
	assert.Equal(t, 1.0, b.Frequency("x"), "oldest occurrence forwarded, not newest")
	assert.Equal(t, 0.0, b.Frequency("y"))
}

func TestBucketChainCascades(t *testing.T) {
	small := NewBucket(1, 1, nil)
	mid := NewBucket(1, 1, nil)
	large := NewBucket(5, 5, nil)
	Chain(small, mid, large)

	for _, q := range []string{"a", "b", "c", "d"} {
		small.Add(q)
	}
	assert.Equal(t, 1.0, small.Frequency("d"))
	assert.Equal(t, 1.0, mid.Frequency("c"))
	assert.Equal(t, 1.0, large.Frequency("a"))
	assert.Equal(t, 1.0, large.Frequency("b"))
}

func TestBucketInvariantsRandomised(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 30; round++ {
		capacity := 1 + rng.Intn(20)
		perKey := 1 + rng.Intn(5)
		b := NewBucket(capacity, perKey, nil)
		for i := 0; i < 500; i++ {
			b.Add(fmt.Sprintf("q%d", rng.Intn(12)))

			require.LessOrEqual(t, b.Len(), capacity)
			total := 0.0
			for _, e := range b.Entries() {
				require.LessOrEqual(t, e.Frequency, float64(perKey))
				require.Greater(t, e.Frequency, 0.0)
				total += e.Frequency
			}
			require.Equal(t, float64(b.Len()), total)
		}
	}
}

func TestBucketUsesFactory(t *testing.T) {
	b := NewBucket(2, 2, func(q string) *Entry { return &Entry{Query: q, WikiWeighted: true} })
	b.Add("cats")
	require.Len(t, b.Entries(), 1)
	assert.True(t, b.Entries()[0].WikiWeighted)
	assert.Equal(t, "cats[1,wiki]", b.Entries()[0].Explain())
}

func BenchmarkBucketAdd(b *testing.B) {
	bucket := NewBucket(1000, 50, nil)
	queries := make([]string, 256)
	for i := range queries {
		queries[i] = fmt.Sprintf("query-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bucket.Add(queries[i%len(queries)])
	}
}
