package sink

import (
	"context"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
)

// Debug hands each result to a callback instead of persisting it.
type Debug struct {
	mu sync.Mutex
	fn func(evaluation.Result)
}

func NewDebug(fn func(evaluation.Result)) *Debug {
	return &Debug{fn: fn}
}

func (d *Debug) Write(_ context.Context, res evaluation.Result) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fn != nil {
		d.fn(res)
	}
	return nil
}

func (d *Debug) Close() error { return nil }
