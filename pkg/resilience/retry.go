// Package resilience retries operations against remote result stores with
// exponential backoff and jitter.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig bounds a retry loop. Zero fields take the defaults below.
type RetryConfig struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

var defaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialDelay:   100 * time.Millisecond,
	MaxDelay:       10 * time.Second,
	Multiplier:     2,
	JitterFraction: 0.1,
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Retry returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a Permanent error, runs out of
// attempts or ctx is done. name labels the log lines.
func Retry(ctx context.Context, name string, cfg RetryConfig, fn func() error) error {
	cfg = withDefaults(cfg)
	logger := slog.Default().With("component", "retry", "operation", name)

	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info("recovered", "attempts", attempt)
			}
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s abandoned after %d attempts: %w", name, attempt, ctx.Err())
		}

		wait := jitter(delay, cfg)
		logger.Warn("attempt failed",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"wait", wait,
			"error", err,
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s abandoned during backoff: %w", name, ctx.Err())
		}
		delay = grow(delay, cfg)
	}
}

func withDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultRetry.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultRetry.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultRetry.MaxDelay
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = defaultRetry.Multiplier
	}
	if cfg.JitterFraction <= 0 {
		cfg.JitterFraction = defaultRetry.JitterFraction
	}
	return cfg
}

// grow returns the next base delay, capped at MaxDelay.
func grow(d time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(d) * cfg.Multiplier)
	if next > cfg.MaxDelay || next <= 0 {
		return cfg.MaxDelay
	}
	return next
}

// jitter spreads d by ±JitterFraction and keeps it within (0, MaxDelay].
func jitter(d time.Duration, cfg RetryConfig) time.Duration {
	spread := float64(d) * cfg.JitterFraction
	out := time.Duration(float64(d) + spread*(2*rand.Float64()-1))
	if out > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	if out <= 0 {
		return d
	}
	return out
}
