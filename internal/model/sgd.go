// Package model implements the online linear regression used to rank
// chained-bucket candidates. It is trained one instance at a time by
// stochastic gradient descent on squared error.
package model

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

const (
	DefaultLearningRate = 0.01
	// InitialWeight is the starting value of every weight.
	InitialWeight   = 0.5
	DefaultLogEvery = 2000
)

// Config sizes and tunes a Model.
type Config struct {
	// Features is the number of chained buckets.
	Features int
	// Scale divides every feature; the largest bucket capacity.
	Scale float64
	// Horizon is the number of queries a prediction covers.
	Horizon      float64
	LearningRate float64
	LogEvery     int
}

// Stats summarises training so far.
type Stats struct {
	Instances        int
	MeanSquaredError float64
	Weights          []float64
}

// Snapshot is the persistable state of a Model.
type Snapshot struct {
	Weights      []float64 `msgpack:"weights"`
	Instances    int       `msgpack:"instances"`
	SquaredError float64   `msgpack:"squared_error"`
	Scale        float64   `msgpack:"scale"`
	Horizon      float64   `msgpack:"horizon"`
	LearningRate float64   `msgpack:"learning_rate"`
}

// Model is a single linear model shared by every prefix.
type Model struct {
	mu           sync.RWMutex
	cfg          Config
	weights      []float64
	instances    int
	squaredError float64
	onTrain      func()
	logger       *slog.Logger
}

func New(cfg Config) *Model {
	if cfg.Features < 1 {
		cfg.Features = 1
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 1
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = DefaultLogEvery
	}
	weights := make([]float64, cfg.Features)
	for i := range weights {
		weights[i] = InitialWeight
	}
	return &Model{
		cfg:     cfg,
		weights: weights,
		logger:  slog.Default().With("component", "sgd-model"),
	}
}

// OnTrain registers a hook called after every training instance.
func (m *Model) OnTrain(fn func()) {
	m.onTrain = fn
}

// Predict returns the expected number of occurrences over the horizon for
// the raw bucket frequencies in features. Never negative.
func (m *Model) Predict(features []float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.dot(m.scale(features)) * m.cfg.Horizon
	if p < 0 {
		return 0
	}
	return p
}

// Train applies one gradient step for fp and returns the in-scale prediction
// made before the update. fp.Features is left untouched.
func (m *Model) Train(fp *FeaturePackage) float64 {
	m.mu.Lock()
	x := m.scale(fp.Features)
	target := fp.Target / m.cfg.Horizon
	prediction := m.dot(x)
	diff := prediction - target
	m.squaredError += diff * diff

	for j := range m.weights {
		m.weights[j] -= m.cfg.LearningRate * diff * x[j]
	}
	m.instances++
	fp.Predicted = prediction * m.cfg.Horizon
	if m.instances%m.cfg.LogEvery == 0 {
		m.logger.Debug("training progress",
			"instances", m.instances,
			"mean_squared_error", m.squaredError/float64(m.instances),
			"weights", formatWeights(m.weights),
		)
	}
	m.mu.Unlock()

	if m.onTrain != nil {
		m.onTrain()
	}
	return prediction
}

// TrainPackage trains on every feature package in p.
func (m *Model) TrainPackage(p *TrainingPackage) {
	for _, fp := range p.Features {
		m.Train(fp)
	}
}

func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{
		Instances: m.instances,
		Weights:   append([]float64(nil), m.weights...),
	}
	if m.instances > 0 {
		s.MeanSquaredError = m.squaredError / float64(m.instances)
	}
	return s
}

func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Weights:      append([]float64(nil), m.weights...),
		Instances:    m.instances,
		SquaredError: m.squaredError,
		Scale:        m.cfg.Scale,
		Horizon:      m.cfg.Horizon,
		LearningRate: m.cfg.LearningRate,
	}
}

// Restore loads weights and counters from s. The feature count must match.
func (m *Model) Restore(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(s.Weights) != len(m.weights) {
		return fmt.Errorf("restoring model: snapshot has %d weights, model has %d", len(s.Weights), len(m.weights))
	}
	copy(m.weights, s.Weights)
	m.instances = s.Instances
	m.squaredError = s.SquaredError
	return nil
}

func (m *Model) scale(features []float64) []float64 {
	x := make([]float64, len(m.weights))
	for i := range x {
		if i < len(features) {
			x[i] = features[i] / m.cfg.Scale
		}
	}
	return x
}

func (m *Model) dot(x []float64) float64 {
	var sum float64
	for i, w := range m.weights {
		sum += w * x[i]
	}
	return sum
}

func formatWeights(weights []float64) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = strconv.FormatFloat(w, 'f', 8, 64)
	}
	return strings.Join(parts, ", ")
}
