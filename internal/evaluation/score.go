package evaluation

import "github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"

const (
	// DefaultTopK is the number of suggestions shown to the user.
	DefaultTopK = 4
	// minSelectWeight drops weak candidates when selecting from long lists.
	minSelectWeight = 2
)

// Scorer ranks and scores records for one run.
type Scorer struct {
	RunID        string
	PrefixLength int
	K            int
}

// Score keeps the best K candidates, ranks them from 1 and locates the
// typed query among them.
func (s Scorer) Score(rec Record) Result {
	k := s.K
	if k <= 0 {
		k = DefaultTopK
	}
	res := Result{
		Record:       rec,
		RunID:        s.RunID,
		PrefixLength: s.PrefixLength,
		Offered:      len(rec.Candidates),
	}

	var top ranking.List
	if len(rec.Candidates) <= k {
		for _, c := range rec.Candidates {
			if c != nil {
				top = append(top, c)
			}
		}
		top.Sort()
	} else {
		sel := ranking.NewTopK(k, ranking.Before)
		for _, c := range rec.Candidates {
			if c == nil || c.Weight < minSelectWeight {
				continue
			}
			sel.Add(c)
		}
		top = sel.Items()
	}
	top.SetRanks()
	res.Candidates = top

	if c, ok := top.Find(rec.Full); ok {
		res.HitRank = c.Rank
		res.ReciprocalRank = 1 / float64(c.Rank)
	}
	return res
}
