package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/metrics"
)

// sizeSampleEvery is how often, in queries, strategy size gauges refresh.
const sizeSampleEvery = 1000

// Queue accepts records for scoring.
type Queue interface {
	Submit(ctx context.Context, rec evaluation.Record) error
}

// RunnerConfig holds the settings shared by every strategy.
type RunnerConfig struct {
	PrefixLength int
	// LearnBefore, when set, makes the runner submit empty candidate lists
	// for queries before it while the strategy keeps learning.
	LearnBefore time.Time
}

// Runner feeds replayed queries through a strategy and forwards each
// resulting candidate list for scoring.
type Runner struct {
	strategy   Strategy
	queue      Queue
	cfg        RunnerConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
	queryCount int
	learned    bool
}

func NewRunner(s Strategy, q Queue, cfg RunnerConfig, m *metrics.Metrics) *Runner {
	return &Runner{
		strategy: s,
		queue:    q,
		cfg:      cfg,
		metrics:  m,
		logger:   slog.Default().With("component", "runner", "strategy", s.Name()),
	}
}

// SubmitQuery replays one query observed at t.
func (r *Runner) SubmitQuery(ctx context.Context, t time.Time, query string) error {
	r.queryCount++
	full := strings.ToLower(query)
	rec := evaluation.Record{
		Seq:  r.queryCount,
		Time: t,
		Full: full,
	}

	if index.Len(full) > r.cfg.PrefixLength {
		partial, _ := index.PrefixOf(full, r.cfg.PrefixLength)
		list, err := r.strategy.Complete(t, partial, full)
		if err != nil {
			return fmt.Errorf("completing query %d: %w", r.queryCount, err)
		}
		rec.Partial = partial
		if r.learning(t) {
			list = ranking.List{}
		}
		rec.Candidates = list
	}

	if r.metrics != nil {
		r.metrics.QueriesSubmitted.Inc()
		if s, ok := r.strategy.(Sizer); ok && r.queryCount%sizeSampleEvery == 0 {
			entries, prefixes := s.Size()
			r.metrics.IndexEntries.Set(float64(entries))
			r.metrics.BucketPrefixes.Set(float64(prefixes))
		}
	}
	return r.queue.Submit(ctx, rec)
}

// HandleSideChannel passes a side-channel line to the strategy if it wants
// one.
func (r *Runner) HandleSideChannel(t time.Time, line string) error {
	if h, ok := r.strategy.(SideChannelHandler); ok {
		return h.HandleSideChannel(t, line)
	}
	return nil
}

func (r *Runner) learning(t time.Time) bool {
	if r.cfg.LearnBefore.IsZero() || r.learned {
		return false
	}
	if t.Before(r.cfg.LearnBefore) {
		return true
	}
	r.learned = true
	r.logger.Info("learning period over", "query_count", r.queryCount, "at", t)
	return false
}

// QueryCount is the number of queries submitted so far.
func (r *Runner) QueryCount() int { return r.queryCount }

func (r *Runner) Strategy() Strategy { return r.strategy }
