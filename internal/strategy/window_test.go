package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
)

func TestWindowEvictsQueriesOutsideWindow(t *testing.T) {
	w := NewWindow(NewBaselineAll(2, nil, nil), 1, nil)
	_, err := w.Complete(day0, "ca", "cats")
	require.NoError(t, err)
	_, ok := w.inner.Index().Entry("cats")
	require.True(t, ok)

	list, err := w.Complete(day0.Add(48*time.Hour), "ca", "cars")
	require.NoError(t, err)
	assert.Empty(t, list)
	_, ok = w.inner.Index().Entry("cats")
	assert.False(t, ok, "day-0 query is gone by day 2")
	assert.Equal(t, 1, w.Journaled())
}

func TestWindowKeepsOneOffQueries(t *testing.T) {
	oneOff := index.OneOffSet{"cats": {}}
	w := NewWindow(NewBaselineAll(2, oneOff, nil), 1, oneOff)

	_, err := w.Complete(day0, "ca", "card")
	require.NoError(t, err)
	_, err = w.Complete(day0, "ca", "cats")
	require.NoError(t, err)
	_, ok := w.inner.Index().Entry("cats")
	require.True(t, ok, "stored once the prefix already exists")

	_, err = w.Complete(day0.Add(48*time.Hour), "ca", "cars")
	require.NoError(t, err)
	_, ok = w.inner.Index().Entry("cats")
	assert.True(t, ok, "one-off queries are never unwound")
	_, ok = w.inner.Index().Entry("card")
	assert.False(t, ok)
}

func TestWindowStoresOneOffAfterPrefixEmptied(t *testing.T) {
	oneOff := index.OneOffSet{"cats": {}}
	w := NewWindow(NewBaselineAll(2, oneOff, nil), 1, oneOff)

	_, err := w.Complete(day0, "ca", "card")
	require.NoError(t, err)

	list, err := w.Complete(day0.Add(48*time.Hour), "ca", "cats")
	require.NoError(t, err)
	assert.Empty(t, list)

	idx := w.inner.Index()
	_, ok := idx.Entry("card")
	assert.False(t, ok)
	_, ok = idx.Entry("cats")
	assert.True(t, ok, "prefix ca was seen before, so cats is stored")
	entries, ok := idx.Entries("ca")
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestWindowKeepsRecentRepeats(t *testing.T) {
	w := NewWindow(NewBaselineAll(2, nil, nil), 7, nil)
	for i := 0; i < 3; i++ {
		_, err := w.Complete(day0.Add(time.Duration(i)*24*time.Hour), "ca", "cats")
		require.NoError(t, err)
	}
	list, err := w.Complete(day0.Add(8*24*time.Hour), "ca", "cars")
	require.NoError(t, err)
	// the day-0 observation fell out; two remain
	assert.Equal(t, []string{"cats"}, list.Texts())
	assert.Equal(t, 2.0, list[0].Weight)
}
