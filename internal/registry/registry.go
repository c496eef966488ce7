// Package registry records evaluation runs in Redis. A run ID can only be
// claimed by one process at a time, and the latest summary of every run is
// kept in a hash so concurrent experiments can be compared while they run.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/resilience"
)

// Backend is the subset of *pkgredis.Client the registry uses.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	HSet(ctx context.Context, key string, values map[string]interface{}) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

var _ Backend = (*pkgredis.Client)(nil)

type Registry struct {
	backend Backend
	prefix  string
	ttl     time.Duration
	owner   string
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

func New(backend Backend, cfg config.RedisConfig) *Registry {
	host, _ := os.Hostname()
	return &Registry{
		backend: backend,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.LockTTL,
		owner:   fmt.Sprintf("%s:%d:%d", host, os.Getpid(), time.Now().UnixNano()),
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond},
		logger:  slog.Default().With("component", "run-registry"),
	}
}

func (r *Registry) lockKey(runID string) string    { return r.prefix + "lock:" + runID }
func (r *Registry) summaryKey(runID string) string { return r.prefix + "summary:" + runID }

// Lease is a claimed run lock.
type Lease struct {
	registry *Registry
	runID    string
}

// Acquire claims runID for this process. It fails with ErrRunLocked when
// another process holds the claim.
func (r *Registry) Acquire(ctx context.Context, runID string) (*Lease, error) {
	var claimed bool
	err := resilience.Retry(ctx, "registry-acquire", r.retry, func() error {
		var err error
		claimed, err = r.backend.SetNX(ctx, r.lockKey(runID), r.owner, r.ttl)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claiming run %s: %w", runID, err)
	}
	if !claimed {
		holder, _ := r.backend.Get(ctx, r.lockKey(runID))
		return nil, apperrors.Newf(apperrors.ErrRunLocked, apperrors.ExitConflict, "%s is held by %s", runID, holder)
	}
	r.logger.Info("run claimed", "run_id", runID, "owner", r.owner, "ttl", r.ttl)
	return &Lease{registry: r, runID: runID}, nil
}

// Release drops the claim if this process still holds it.
func (l *Lease) Release(ctx context.Context) error {
	r := l.registry
	holder, err := r.backend.Get(ctx, r.lockKey(l.runID))
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil
		}
		return fmt.Errorf("reading lock for %s: %w", l.runID, err)
	}
	if holder != r.owner {
		r.logger.Warn("lock taken over, not releasing", "run_id", l.runID, "holder", holder)
		return nil
	}
	if err := r.backend.Del(ctx, r.lockKey(l.runID)); err != nil {
		return fmt.Errorf("releasing run %s: %w", l.runID, err)
	}
	r.logger.Info("run released", "run_id", l.runID)
	return nil
}

// Publish stores sum as the latest summary for its run.
func (r *Registry) Publish(ctx context.Context, sum evaluation.Summary) error {
	body, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	fields := map[string]interface{}{
		"mrr":        strconv.FormatFloat(sum.MRR, 'f', 6, 64),
		"records":    sum.Records,
		"hits":       sum.Hits,
		"owner":      r.owner,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"summary":    string(body),
	}
	return resilience.Retry(ctx, "registry-publish", r.retry, func() error {
		return r.backend.HSet(ctx, r.summaryKey(sum.RunID), fields)
	})
}

// Summary returns the latest published summary for runID, or nil.
func (r *Registry) Summary(ctx context.Context, runID string) (*evaluation.Summary, error) {
	fields, err := r.backend.HGetAll(ctx, r.summaryKey(runID))
	if err != nil {
		return nil, fmt.Errorf("reading summary for %s: %w", runID, err)
	}
	body, ok := fields["summary"]
	if !ok {
		return nil, nil
	}
	var sum evaluation.Summary
	if err := json.Unmarshal([]byte(body), &sum); err != nil {
		return nil, fmt.Errorf("decoding summary for %s: %w", runID, err)
	}
	return &sum, nil
}

// HasRun reports whether a summary was ever published for runID.
func (r *Registry) HasRun(ctx context.Context, runID string) (bool, error) {
	sum, err := r.Summary(ctx, runID)
	if err != nil {
		return false, err
	}
	return sum != nil, nil
}

// Forget removes the published summary for runID so the run can be
// recorded again.
func (r *Registry) Forget(ctx context.Context, runID string) error {
	if err := r.backend.Del(ctx, r.summaryKey(runID)); err != nil {
		return fmt.Errorf("forgetting run %s: %w", runID, err)
	}
	return nil
}

// Runs lists every run with a published summary, sorted by run ID.
func (r *Registry) Runs(ctx context.Context) ([]string, error) {
	keys, err := r.backend.Keys(ctx, r.summaryKey("*"))
	if err != nil {
		return nil, err
	}
	runs := make([]string, 0, len(keys))
	for _, k := range keys {
		runs = append(runs, strings.TrimPrefix(k, r.summaryKey("")))
	}
	sort.Strings(runs)
	return runs, nil
}

// StartPublishing publishes agg's summary every interval until ctx is done,
// then once more. The returned channel closes after the final publish.
func (r *Registry) StartPublishing(ctx context.Context, agg *evaluation.Aggregate, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Publish(ctx, agg.Summary()); err != nil {
					r.logger.Error("publishing summary failed", "error", err)
				}
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				if err := r.Publish(final, agg.Summary()); err != nil {
					r.logger.Error("final summary publish failed", "error", err)
				}
				cancel()
				return
			}
		}
	}()
	return done
}
