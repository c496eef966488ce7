package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

var queryTime = time.Date(2006, 3, 1, 10, 15, 0, 0, time.UTC)

func list(pairs ...any) ranking.List {
	var l ranking.List
	for i := 0; i < len(pairs); i += 2 {
		l = append(l, &ranking.Candidate{Text: pairs[i].(string), Weight: pairs[i+1].(float64)})
	}
	return l
}

func TestScoreHitAtRankTwo(t *testing.T) {
	s := Scorer{RunID: "aol-bl-a", PrefixLength: 2}
	res := s.Score(Record{
		Seq:        1,
		Time:       queryTime,
		Partial:    "ca",
		Full:       "cards",
		Candidates: list("cats", 9.0, "cards", 5.0, "carpet", 3.0),
	})
	assert.Equal(t, 2, res.HitRank)
	assert.Equal(t, 0.5, res.ReciprocalRank)
	assert.Equal(t, []string{"cats", "cards", "carpet"}, res.Candidates.Texts())
}

func TestScoreMiss(t *testing.T) {
	res := Scorer{}.Score(Record{Full: "cats", Candidates: list("dogs", 3.0)})
	assert.Equal(t, 0, res.HitRank)
	assert.Equal(t, 0.0, res.ReciprocalRank)
	assert.False(t, res.Hit())
}

func TestScoreEmptyList(t *testing.T) {
	res := Scorer{}.Score(Record{Full: "cats"})
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 0.0, res.ReciprocalRank)
}

func TestScoreTruncatesLongListsAndSkipsWeakCandidates(t *testing.T) {
	res := Scorer{K: 4}.Score(Record{
		Full: "cab",
		Candidates: append(list(
			"car", 10.0, "cat", 8.0, "cap", 1.5, "can", 7.0, "cab", 1.9, "cam", 6.0, "cad", 2.0,
		), nil),
	})
	require.Len(t, res.Candidates, 4)
	assert.Equal(t, []string{"car", "cat", "can", "cam"}, res.Candidates.Texts())
	for i, c := range res.Candidates {
		assert.Equal(t, i+1, c.Rank)
	}
	assert.Equal(t, 0, res.HitRank)
	assert.Equal(t, 8, res.Offered)
}

func TestScoreShortListKeepsWeakCandidates(t *testing.T) {
	res := Scorer{}.Score(Record{Full: "cab", Candidates: list("cab", 1.0, "car", 3.0)})
	assert.Equal(t, []string{"car", "cab"}, res.Candidates.Texts())
	assert.Equal(t, 2, res.HitRank)
}

func TestResultLine(t *testing.T) {
	res := Scorer{RunID: "aol-bl-w7", PrefixLength: 2}.Score(Record{
		Seq:        42,
		Time:       queryTime,
		Partial:    "ca",
		Full:       "cards",
		Candidates: list("cats", 9.0, "cards", 2.5),
	})
	assert.Equal(t,
		"aol-bl-w7\t2\t42\tcards\tca\t2006-03-01 10:15:00\t2\t2\tnull\t0.5\t0.5\tcats[9];cards[2.5]",
		res.Line())
}
