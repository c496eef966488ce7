package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixIndexRoundTrip(t *testing.T) {
	idx := NewPrefixIndex(2, nil)
	const n = 5
	for i := 0; i < n; i++ {
		idx.Add("cats", false)
	}

	e, ok := idx.Entry("cats")
	require.True(t, ok)
	assert.Equal(t, float64(n), e.Frequency)

	entries, ok := idx.Entries("ca")
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Same(t, e, entries[0])

	idx.Delete("cats", n, false)
	_, ok = idx.Entry("cats")
	assert.False(t, ok)
	entries, ok = idx.Entries("ca")
	assert.True(t, ok, "emptied prefix stays known")
	assert.Empty(t, entries)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 1, idx.Prefixes())
}

func TestPrefixIndexPartialDelete(t *testing.T) {
	idx := NewPrefixIndex(2, nil)
	idx.Add("cats", false)
	idx.Add("cats", false)
	idx.Add("cars", false)

	idx.Delete("cats", 1, false)
	e, ok := idx.Entry("cats")
	require.True(t, ok)
	assert.Equal(t, 1.0, e.Frequency)

	idx.Delete("cars", 0, true)
	_, ok = idx.Entry("cars")
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Prefixes())
}

func TestPrefixIndexOneOffIsNotStored(t *testing.T) {
	idx := NewPrefixIndex(2, nil)
	e := idx.Add("zebra crossing", true)
	require.NotNil(t, e)
	assert.Equal(t, 1.0, e.Frequency)
	assert.Equal(t, 0, idx.Len())
	_, ok := idx.Entries("ze")
	assert.False(t, ok)
}

func TestPrefixIndexShortQueryHasNoPrefix(t *testing.T) {
	idx := NewPrefixIndex(3, nil)
	assert.Nil(t, idx.Add("ab", false))
	assert.Equal(t, 0, idx.Len())
	idx.Delete("ab", 1, false)
}

func TestPrefixIndexFlatMapReachableThroughPrefix(t *testing.T) {
	idx := NewPrefixIndex(2, nil)
	for _, q := range strings.Fields("cats cars dogs door cats dots ca") {
		idx.Add(q, false)
	}
	idx.Delete("dogs", 1, false)

	for _, q := range []string{"cats", "cars", "door", "dots", "ca"} {
		e, ok := idx.Entry(q)
		require.True(t, ok, q)
		prefix, _ := PrefixOf(q, 2)
		entries, ok := idx.Entries(prefix)
		require.True(t, ok)
		assert.Contains(t, entries, e)
	}
}

func TestPrefixOfCountsCharacters(t *testing.T) {
	p, ok := PrefixOf("café", 4)
	assert.True(t, ok)
	assert.Equal(t, "café", p)

	p, ok = PrefixOf("über", 2)
	assert.True(t, ok)
	assert.Equal(t, "üb", p)

	_, ok = PrefixOf("ca", 3)
	assert.False(t, ok)
	assert.Equal(t, 4, Len("café"))
}
