// Package strategy implements the interchangeable autocompletion strategies
// and the runner that replays queries through them.
package strategy

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// Strategy produces candidates for a partial query and then learns from the
// full query. Implementations are driven from a single goroutine.
type Strategy interface {
	Name() string
	Complete(t time.Time, partial, full string) (ranking.List, error)
}

// SideChannelHandler is implemented by strategies that consume interleaved
// side-channel events.
type SideChannelHandler interface {
	HandleSideChannel(t time.Time, line string) error
}

// Sizer reports how much state a strategy holds, for metrics.
type Sizer interface {
	Size() (entries, prefixes int)
}

// Base supplies the name and the default behaviour shared by strategies.
// Completion is not implemented by Base; embedding types override it.
type Base struct {
	name string
}

func (b Base) Name() string { return b.name }

func (b Base) Complete(time.Time, string, string) (ranking.List, error) {
	return nil, apperrors.Newf(apperrors.ErrNotImplemented, apperrors.ExitFailure, "strategy %s", b.name)
}

func (b Base) HandleSideChannel(time.Time, string) error { return nil }
