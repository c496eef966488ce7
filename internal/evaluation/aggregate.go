package evaluation

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// maxLatencySamples bounds the reservoir used for latency percentiles.
const maxLatencySamples = 1 << 16

// Summary is a point-in-time view of a run's aggregate.
type Summary struct {
	RunID               string        `json:"run_id"`
	Records             int64         `json:"records"`
	TotalReciprocalRank float64       `json:"total_reciprocal_rank"`
	MRR                 float64       `json:"mrr"`
	Hits                int64         `json:"hits"`
	EmptyLists          int64         `json:"empty_lists"`
	HitsByRank          map[int]int64 `json:"hits_by_rank"`
	AvgScoreMicros      float64       `json:"avg_score_us"`
	P50ScoreMicros      int64         `json:"p50_score_us"`
	P95ScoreMicros      int64         `json:"p95_score_us"`
	P99ScoreMicros      int64         `json:"p99_score_us"`
	StartedAt           time.Time     `json:"started_at"`
	Elapsed             time.Duration `json:"elapsed"`
}

// Aggregate accumulates reciprocal ranks from concurrent scorers. All
// updates go through one mutex so the mean is exact.
type Aggregate struct {
	mu         sync.Mutex
	runID      string
	records    int64
	totalRR    float64
	hits       int64
	empty      int64
	hitsByRank map[int]int64
	latencies  []int64
	seen       int64
	latencySum int64
	rng        *rand.Rand
	startTime  time.Time
}

func NewAggregate(runID string) *Aggregate {
	return &Aggregate{
		runID:      runID,
		hitsByRank: make(map[int]int64),
		latencies:  make([]int64, 0, 1024),
		rng:        rand.New(rand.NewSource(1)),
		startTime:  time.Now(),
	}
}

// Add folds one scored result and the time it took to score into the
// aggregate.
func (a *Aggregate) Add(res Result, latency time.Duration) {
	us := latency.Microseconds()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records++
	a.totalRR += res.ReciprocalRank
	if res.Hit() {
		a.hits++
		a.hitsByRank[res.HitRank]++
	}
	if len(res.Candidates) == 0 {
		a.empty++
	}

	a.seen++
	a.latencySum += us
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, us)
	} else if j := a.rng.Int63n(a.seen); j < maxLatencySamples {
		a.latencies[j] = us
	}
}

// MRR is the mean reciprocal rank so far, 0 before any record.
func (a *Aggregate) MRR() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mrr()
}

func (a *Aggregate) mrr() float64 {
	if a.records == 0 {
		return 0
	}
	return a.totalRR / float64(a.records)
}

// Count is the number of records aggregated.
func (a *Aggregate) Count() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.records
}

func (a *Aggregate) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		RunID:               a.runID,
		Records:             a.records,
		TotalReciprocalRank: a.totalRR,
		MRR:                 a.mrr(),
		Hits:                a.hits,
		EmptyLists:          a.empty,
		HitsByRank:          make(map[int]int64, len(a.hitsByRank)),
		StartedAt:           a.startTime,
		Elapsed:             time.Since(a.startTime),
	}
	for rank, n := range a.hitsByRank {
		s.HitsByRank[rank] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		s.AvgScoreMicros = float64(a.latencySum) / float64(a.seen)
		s.P50ScoreMicros = percentile(sorted, 50)
		s.P95ScoreMicros = percentile(sorted, 95)
		s.P99ScoreMicros = percentile(sorted, 99)
	}
	return s
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
