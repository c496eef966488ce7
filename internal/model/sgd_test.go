package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsAtInitialWeight(t *testing.T) {
	m := New(Config{Features: 3, Scale: 10, Horizon: 5})
	assert.Equal(t, []float64{InitialWeight, InitialWeight, InitialWeight}, m.Stats().Weights)
	assert.Equal(t, 0, m.Stats().Instances)
}

func TestPredictScalesAndClamps(t *testing.T) {
	m := New(Config{Features: 2, Scale: 100, Horizon: 10})
	// 0.5*0.1 + 0.5*0.2 = 0.15, times horizon 10
	assert.InDelta(t, 1.5, m.Predict([]float64{10, 20}), 1e-9)

	require.NoError(t, m.Restore(Snapshot{Weights: []float64{-1, -1}}))
	assert.Equal(t, 0.0, m.Predict([]float64{10, 20}))
}

func TestTrainConverges(t *testing.T) {
	m := New(Config{Features: 2, Scale: 100, Horizon: 10, LearningRate: 0.5})
	features := []float64{10, 20}
	const target = 3.0

	prevErr := math.Inf(1)
	for i := 0; i < 2000; i++ {
		m.Train(&FeaturePackage{Query: "cats", Features: features, Target: target})
		err := math.Abs(m.Predict(features) - target)
		require.LessOrEqual(t, err, prevErr+1e-12, "iteration %d", i)
		prevErr = err
	}
	assert.InDelta(t, target, m.Predict(features), 1e-6)
	assert.Equal(t, []float64{10, 20}, features, "features are not rescaled in place")
}

func TestTrainRecordsStats(t *testing.T) {
	m := New(Config{Features: 1, Scale: 1, Horizon: 1, LearningRate: 0.1})
	trained := 0
	m.OnTrain(func() { trained++ })

	fp := &FeaturePackage{Features: []float64{1}, Target: 1}
	pred := m.Train(fp)
	assert.InDelta(t, 0.5, pred, 1e-12)
	assert.InDelta(t, 0.5, fp.Predicted, 1e-12)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Instances)
	assert.InDelta(t, 0.25, stats.MeanSquaredError, 1e-12)
	assert.InDelta(t, 0.55, stats.Weights[0], 1e-12)
	assert.Equal(t, 1, trained)
}

func TestTrainPackage(t *testing.T) {
	m := New(Config{Features: 1, Scale: 1, Horizon: 1})
	p := &TrainingPackage{
		Prefix:    "ca",
		CreatedAt: 10,
		TrainedAt: 25,
		Features: []*FeaturePackage{
			{Query: "cats", Features: []float64{1}, Target: 1},
			{Query: "cars", Features: []float64{2}, Target: 0},
		},
	}
	m.TrainPackage(p)
	assert.Equal(t, 2, m.Stats().Instances)
	assert.Equal(t, 15, p.QueriesSinceLastTrain())
}

func TestSnapshotRestore(t *testing.T) {
	a := New(Config{Features: 3, Scale: 10, Horizon: 5})
	a.Train(&FeaturePackage{Features: []float64{1, 2, 3}, Target: 4})

	b := New(Config{Features: 3, Scale: 10, Horizon: 5})
	require.NoError(t, b.Restore(a.Snapshot()))
	assert.Equal(t, a.Stats(), b.Stats())

	c := New(Config{Features: 2})
	assert.Error(t, c.Restore(a.Snapshot()))
}
