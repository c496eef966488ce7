package strategy

import (
	"math"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/model"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

// DefaultBaseBucketSize sizes the cold-start bucket.
const DefaultBaseBucketSize = 200

// ChainedParams configures the chained-bucket strategy. Sizes and MaxFreqs
// are parallel and ascending.
type ChainedParams struct {
	Sizes          []int
	MaxFreqs       []int
	TrainAfter     int
	BaseBucketSize int
	LearningRate   float64
}

type prefixState struct {
	chain    []*index.Bucket
	overall  *index.Bucket
	base     *index.Bucket
	horizon  *index.Bucket
	observed int
	started  bool
	pending  *model.TrainingPackage
}

// Chained ranks candidates with an online model fed by a cascade of
// non-overlapping buckets per prefix. Until a prefix's aggregate bucket is
// full it falls back to raw frequencies from a small base bucket.
type Chained struct {
	Base
	params     ChainedParams
	total      int
	factory    index.EntryFactory
	model      *model.Model
	prefixes   map[string]*prefixState
	queryCount int
	trained    int
}

func NewChained(params ChainedParams, factory index.EntryFactory) *Chained {
	if params.BaseBucketSize <= 0 {
		params.BaseBucketSize = DefaultBaseBucketSize
	}
	total, largest := 0, 0
	for _, n := range params.Sizes {
		total += n
		largest = max(largest, n)
	}
	return &Chained{
		Base:    Base{name: TypeChained},
		params:  params,
		total:   total,
		factory: factory,
		model: model.New(model.Config{
			Features:     len(params.Sizes),
			Scale:        float64(largest),
			Horizon:      float64(params.TrainAfter),
			LearningRate: params.LearningRate,
		}),
		prefixes: make(map[string]*prefixState),
	}
}

func (c *Chained) Complete(_ time.Time, partial, full string) (ranking.List, error) {
	c.queryCount++
	st := c.state(partial)

	if (st.started && st.observed == c.params.TrainAfter) || (!st.started && st.observed == c.total) {
		c.closeHorizon(partial, st)
	}

	var list ranking.List
	ready := st.overall.Full()
	for _, e := range st.overall.Entries() {
		if e.Frequency < 2 {
			continue
		}
		var weight float64
		if ready {
			weight = roundTo5(2 + c.model.Predict(c.features(st, e.Query)))
		} else {
			weight = st.base.Frequency(e.Query)
			if weight < 2 {
				continue
			}
		}
		list = append(list, &ranking.Candidate{Text: e.Query, Weight: weight})
	}

	st.observed++
	st.chain[0].Add(full)
	st.overall.Add(full)
	st.base.Add(full)
	st.horizon.Add(full)
	return list, nil
}

// closeHorizon trains on the pending package for the prefix, if any, and
// assembles the next one from the largest chain bucket.
func (c *Chained) closeHorizon(prefix string, st *prefixState) {
	if p := st.pending; p != nil {
		p.TrainedAt = c.queryCount
		for _, fp := range p.Features {
			if f := st.horizon.Frequency(fp.Query); f > 0 {
				fp.Target = f
			}
		}
		c.model.TrainPackage(p)
		c.trained++
	}

	largest := st.chain[len(st.chain)-1]
	p := &model.TrainingPackage{
		Prefix:    prefix,
		CreatedAt: c.queryCount,
		First:     !st.started,
	}
	for _, e := range largest.Entries() {
		p.Features = append(p.Features, &model.FeaturePackage{
			Query:    e.Query,
			Features: c.features(st, e.Query),
		})
	}
	st.pending = p
	st.started = true
	st.observed = 0
}

func (c *Chained) features(st *prefixState, query string) []float64 {
	f := make([]float64, len(st.chain))
	for i, b := range st.chain {
		f[i] = b.Frequency(query)
	}
	return f
}

func (c *Chained) state(prefix string) *prefixState {
	if st, ok := c.prefixes[prefix]; ok {
		return st
	}
	st := &prefixState{
		chain:   make([]*index.Bucket, len(c.params.Sizes)),
		overall: index.NewBucket(c.total, c.total, c.factory),
		base:    index.NewBucket(c.params.BaseBucketSize, c.params.BaseBucketSize, c.factory),
		horizon: index.NewBucket(c.params.TrainAfter, c.params.TrainAfter, c.factory),
	}
	for i := range st.chain {
		st.chain[i] = index.NewBucket(c.params.Sizes[i], c.params.MaxFreqs[i], c.factory)
	}
	index.Chain(st.chain...)
	c.prefixes[prefix] = st
	return st
}

// Model returns the shared online model.
func (c *Chained) Model() *model.Model { return c.model }

// PackagesTrained is the number of training packages consumed so far.
func (c *Chained) PackagesTrained() int { return c.trained }

func (c *Chained) Size() (int, int) {
	entries := 0
	for _, st := range c.prefixes {
		entries += st.overall.Unique()
	}
	return entries, len(c.prefixes)
}

func roundTo5(x float64) float64 {
	return math.RoundToEven(x*1e5) / 1e5
}
