// Package evaluation scores candidate lists against the query the user
// actually typed and aggregates mean reciprocal rank across a run.
package evaluation

import (
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

// TimeLayout is the timestamp format of query logs and output lines.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one replayed query and the candidates offered for it.
type Record struct {
	Seq        int
	Time       time.Time
	Partial    string
	Full       string
	Candidates ranking.List
}

// Result is a scored record. Candidates holds the ranked, truncated list.
type Result struct {
	Record
	RunID          string
	PrefixLength   int
	Offered        int
	HitRank        int
	ReciprocalRank float64
}

// Hit reports whether the typed query was among the candidates.
func (r Result) Hit() bool { return r.HitRank > 0 }

// Line renders the tab-separated output line for the result.
func (r Result) Line() string {
	rr := strconv.FormatFloat(r.ReciprocalRank, 'f', -1, 64)
	fields := []string{
		r.RunID,
		strconv.Itoa(r.PrefixLength),
		strconv.Itoa(r.Seq),
		r.Full,
		r.Partial,
		r.Time.Format(TimeLayout),
		strconv.Itoa(len(r.Candidates)),
		strconv.Itoa(r.HitRank),
		"null",
		rr,
		rr,
		r.Candidates.Join(";"),
	}
	return strings.Join(fields, "\t")
}
