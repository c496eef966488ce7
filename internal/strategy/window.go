package strategy

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

// Indexed is a strategy backed by a prefix index.
type Indexed interface {
	Strategy
	Index() *index.PrefixIndex
}

// Window restricts an indexed strategy to a trailing time window by
// unwinding observations that fall out of it.
type Window struct {
	inner   Indexed
	window  time.Duration
	journal *index.Journal
	oneOff  index.OneOffSet
}

func NewWindow(inner Indexed, days int, oneOff index.OneOffSet) *Window {
	return &Window{
		inner:   inner,
		window:  time.Duration(days) * 24 * time.Hour,
		journal: index.NewJournal(),
		oneOff:  oneOff,
	}
}

func (w *Window) Name() string { return TypeBaselineWindow }

func (w *Window) Complete(t time.Time, partial, full string) (ranking.List, error) {
	idx := w.inner.Index()
	for _, e := range w.journal.EvictBefore(t.Add(-w.window)) {
		if w.oneOff.Contains(e.Query) {
			continue
		}
		idx.Delete(e.Query, 1, false)
	}

	list, err := w.inner.Complete(t, partial, full)
	if err != nil {
		return nil, err
	}
	w.journal.Append(&index.JournalEntry{Time: t, Query: full})
	return list, nil
}

func (w *Window) HandleSideChannel(t time.Time, line string) error {
	if h, ok := w.inner.(SideChannelHandler); ok {
		return h.HandleSideChannel(t, line)
	}
	return nil
}

func (w *Window) Size() (int, int) {
	idx := w.inner.Index()
	return idx.Len(), idx.Prefixes()
}

// Journaled is the number of observations still inside the window.
func (w *Window) Journaled() int { return w.journal.Len() }
