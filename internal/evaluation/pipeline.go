package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/metrics"
)

const (
	DefaultWorkers    = 6
	DefaultQueueDepth = 1000
)

var errPipelineClosed = errors.New("evaluation pipeline closed")

// Sink receives every scored result. Writes may come from several workers.
type Sink interface {
	Write(ctx context.Context, res Result) error
	Close() error
}

// PipelineConfig controls scoring concurrency.
type PipelineConfig struct {
	Workers    int
	QueueDepth int
	// Concurrent false scores each record on the submitting goroutine.
	Concurrent bool
	Scorer     Scorer
	// SinkName labels sink error metrics.
	SinkName string
}

// Pipeline scores records on a bounded worker pool so replay is not held
// up by ranking or output. Submit blocks while the queue is full.
type Pipeline struct {
	cfg     PipelineConfig
	sink    Sink
	agg     *Aggregate
	metrics *metrics.Metrics
	logger  *slog.Logger

	ctx     context.Context
	cancel  context.CancelCauseFunc
	queue   chan Record
	group   *errgroup.Group
	pending sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewPipeline starts the workers. They run until Close.
func NewPipeline(ctx context.Context, cfg PipelineConfig, sink Sink, m *metrics.Metrics) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	ctx, cancel := context.WithCancelCause(ctx)
	p := &Pipeline{
		cfg:     cfg,
		sink:    sink,
		agg:     NewAggregate(cfg.Scorer.RunID),
		metrics: m,
		logger:  slog.Default().With("component", "evaluation-pipeline", "run_id", cfg.Scorer.RunID),
		ctx:     ctx,
		cancel:  cancel,
	}
	if cfg.Concurrent {
		p.queue = make(chan Record, cfg.QueueDepth)
		p.group = &errgroup.Group{}
		for i := 0; i < cfg.Workers; i++ {
			p.group.Go(p.worker)
		}
		p.logger.Info("evaluation workers started", "workers", cfg.Workers, "queue_depth", cfg.QueueDepth)
	}
	return p
}

// Submit hands rec to the pool, or scores it inline when not concurrent.
// ctx only bounds waiting for queue space.
func (p *Pipeline) Submit(ctx context.Context, rec Record) error {
	if err := p.failure(); err != nil {
		return err
	}
	if !p.cfg.Concurrent {
		// Pipeline context, not ctx: replay cancellation must not abort a flush.
		if err := p.process(p.ctx, rec); err != nil {
			p.cancel(err)
			return err
		}
		return nil
	}

	p.pending.Add(1)
	select {
	case p.queue <- rec:
		if p.metrics != nil {
			p.metrics.QueueDepth.Set(float64(len(p.queue)))
		}
		return nil
	case <-ctx.Done():
		p.pending.Done()
		return ctx.Err()
	case <-p.ctx.Done():
		p.pending.Done()
		return p.failure()
	}
}

// WaitForIdle blocks until every submitted record has been scored.
func (p *Pipeline) WaitForIdle() {
	p.pending.Wait()
}

// Close drains the queue, stops the workers and closes the sink. It returns
// the first scoring or sink error.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		var workerErr error
		if p.cfg.Concurrent {
			close(p.queue)
			workerErr = p.group.Wait()
		}
		if workerErr == nil {
			if cause := context.Cause(p.ctx); cause != nil && !errors.Is(cause, context.Canceled) {
				workerErr = cause
			}
		}
		p.cancel(errPipelineClosed)
		sinkErr := p.sink.Close()
		p.closeErr = errors.Join(workerErr, sinkErr)
	})
	return p.closeErr
}

// Aggregate exposes the running totals.
func (p *Pipeline) Aggregate() *Aggregate { return p.agg }

func (p *Pipeline) worker() error {
	var firstErr error
	for rec := range p.queue {
		if firstErr == nil && p.ctx.Err() == nil {
			if err := p.process(p.ctx, rec); err != nil {
				firstErr = err
				p.cancel(err)
			}
		}
		p.pending.Done()
	}
	return firstErr
}

func (p *Pipeline) process(ctx context.Context, rec Record) error {
	start := time.Now()
	res := p.cfg.Scorer.Score(rec)
	latency := time.Since(start)

	if err := p.sink.Write(ctx, res); err != nil {
		if p.metrics != nil {
			p.metrics.SinkErrorsTotal.WithLabelValues(p.cfg.SinkName).Inc()
		}
		return fmt.Errorf("writing result %d: %w", rec.Seq, err)
	}
	p.agg.Add(res, latency)

	if p.metrics != nil {
		outcome := "miss"
		switch {
		case res.Hit():
			outcome = "hit"
			p.metrics.HitsByRank.WithLabelValues(strconv.Itoa(res.HitRank)).Inc()
		case len(res.Candidates) == 0:
			outcome = "empty"
		}
		p.metrics.RecordsScored.WithLabelValues(outcome).Inc()
		p.metrics.ScoreLatency.Observe(latency.Seconds())
		p.metrics.CandidateCount.Observe(float64(res.Offered))
		p.metrics.RunningMRR.Set(p.agg.MRR())
	}
	return nil
}

func (p *Pipeline) failure() error {
	if p.ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(p.ctx)
	if errors.Is(cause, errPipelineClosed) {
		return errPipelineClosed
	}
	return cause
}
