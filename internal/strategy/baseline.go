package strategy

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

// cutoffSteps raises the minimum frequency as a prefix accumulates more
// distinct queries, trimming the long tail before scoring.
var cutoffSteps = []struct {
	above  int
	cutoff float64
}{
	{26000, 11},
	{20000, 10},
	{15000, 9},
	{10000, 8},
	{6000, 7},
	{3000, 6},
	{1000, 5},
	{500, 4},
}

// Cutoff returns the frequency a candidate must exceed when n entries share
// its prefix.
func Cutoff(n int) float64 {
	for _, s := range cutoffSteps {
		if n > s.above {
			return s.cutoff
		}
	}
	return 1
}

// candidates builds a list from entries whose frequency exceeds the
// size-scaled cutoff.
func candidates(entries []*index.Entry) ranking.List {
	cutoff := Cutoff(len(entries))
	var list ranking.List
	for _, e := range entries {
		if e.Frequency <= cutoff {
			continue
		}
		list = append(list, &ranking.Candidate{
			Text:    e.Query,
			Weight:  e.RankingWeight(),
			Explain: e.Explain(),
		})
	}
	return list
}

// BaselineAll suggests from every query seen so far under the prefix.
type BaselineAll struct {
	Base
	index  *index.PrefixIndex
	oneOff index.OneOffSet
}

func NewBaselineAll(prefixLength int, oneOff index.OneOffSet, factory index.EntryFactory) *BaselineAll {
	return &BaselineAll{
		Base:   Base{name: TypeBaselineAll},
		index:  index.NewPrefixIndex(prefixLength, factory),
		oneOff: oneOff,
	}
}

func (b *BaselineAll) Complete(_ time.Time, partial, full string) (ranking.List, error) {
	entries, ok := b.index.Entries(partial)
	if !ok {
		b.index.Add(full, b.oneOff.Contains(full))
		return nil, nil
	}
	list := candidates(entries)
	// Once the prefix exists the query is stored even if it is a one-off.
	b.index.Add(full, false)
	return list, nil
}

func (b *BaselineAll) Index() *index.PrefixIndex { return b.index }

func (b *BaselineAll) Size() (int, int) {
	return b.index.Len(), b.index.Prefixes()
}
