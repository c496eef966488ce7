package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

func newTestChained() *Chained {
	return NewChained(ChainedParams{
		Sizes:      []int{2, 4},
		MaxFreqs:   []int{2, 4},
		TrainAfter: 3,
	}, nil)
}

func TestChainedColdStartUsesBaseBucket(t *testing.T) {
	c := newTestChained()
	var list ranking.List
	var err error
	for _, q := range []string{"cats", "cats", "cars"} {
		list, err = c.Complete(day0, "ca", q)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"cats"}, list.Texts())
	assert.Equal(t, 2.0, list[0].Weight)
	assert.Equal(t, DefaultBaseBucketSize, c.prefixes["ca"].base.Capacity())
}

func TestChainedWiresBucketsPerPrefix(t *testing.T) {
	c := newTestChained()
	for _, q := range []string{"cats", "cars", "cabs"} {
		_, err := c.Complete(day0, "ca", q)
		require.NoError(t, err)
	}
	st := c.prefixes["ca"]
	assert.Equal(t, 2, st.chain[0].Len())
	assert.Equal(t, 1.0, st.chain[1].Frequency("cats"), "oldest occurrence cascades to the next bucket")
	assert.Equal(t, 3, st.overall.Len())
	assert.Equal(t, 6, st.overall.Capacity())
}

func TestChainedTrainingHorizons(t *testing.T) {
	c := newTestChained()
	queries := []string{"cats", "cars", "cats", "cats", "cars", "cats"}
	for _, q := range queries {
		_, err := c.Complete(day0, "ca", q)
		require.NoError(t, err)
	}
	st := c.prefixes["ca"]
	require.True(t, st.overall.Full())
	assert.Nil(t, st.pending)

	// seventh query closes the first horizon: a package is built, nothing trained
	st7 := st.overall.Entries()
	expected := map[string]float64{}
	for _, e := range st7 {
		if e.Frequency >= 2 {
			expected[e.Query] = roundTo5(2 + c.Model().Predict(c.features(st, e.Query)))
		}
	}
	list, err := c.Complete(day0, "ca", "cars")
	require.NoError(t, err)
	require.NotNil(t, st.pending)
	assert.True(t, st.pending.First)
	assert.Equal(t, 7, st.pending.CreatedAt)
	assert.Equal(t, 0, c.PackagesTrained())

	require.Len(t, list, len(expected))
	for _, cand := range list {
		assert.Equal(t, expected[cand.Text], cand.Weight, cand.Text)
		assert.GreaterOrEqual(t, cand.Weight, 2.0)
	}

	// the horizon spans calls 7 to 9; the tenth call trains on it
	pending := st.pending
	for _, q := range []string{"cats", "cats"} {
		_, err := c.Complete(day0, "ca", q)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, c.PackagesTrained())
	_, err = c.Complete(day0, "ca", "cats")
	require.NoError(t, err)
	assert.Equal(t, 1, c.PackagesTrained())
	assert.Equal(t, 10, pending.TrainedAt)
	assert.Equal(t, 3, pending.QueriesSinceLastTrain())
	assert.Equal(t, len(pending.Features), c.Model().Stats().Instances)
	for _, fp := range pending.Features {
		assert.Greater(t, fp.Target, 0.0, fp.Query)
	}
	assert.False(t, st.pending.First)
}

func TestChainedWeightsNeverBelowTwo(t *testing.T) {
	c := newTestChained()
	queries := []string{"cats", "cars", "cats", "cabs", "cats", "cars", "card", "cats"}
	sawModel := false
	for i := 0; i < 200; i++ {
		list, err := c.Complete(day0, "ca", queries[(i*7)%len(queries)])
		require.NoError(t, err)
		if c.prefixes["ca"].overall.Full() && len(list) > 0 {
			sawModel = true
		}
		for _, cand := range list {
			assert.GreaterOrEqual(t, cand.Weight, 2.0, "call %d %s", i, cand.Text)
		}
	}
	assert.True(t, sawModel, "aggregate bucket filled and the model ranked")
}

func TestChainedSize(t *testing.T) {
	c := newTestChained()
	_, _ = c.Complete(day0, "ca", "cats")
	_, _ = c.Complete(day0, "do", "dogs")
	entries, prefixes := c.Size()
	assert.Equal(t, 2, entries)
	assert.Equal(t, 2, prefixes)
}

func TestRoundTo5(t *testing.T) {
	assert.Equal(t, 2.12346, roundTo5(2.123456))
	assert.Equal(t, 2.0, roundTo5(2.000001))
}
