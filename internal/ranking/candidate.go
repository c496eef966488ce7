// Package ranking turns weighted suggestions into ordered candidate lists
// and selects the best K of them without sorting the whole set.
package ranking

import (
	"sort"
	"strconv"
	"strings"
)

// Candidate is one suggested completion.
type Candidate struct {
	Text    string
	Weight  float64
	Rank    int
	Explain string
}

// String renders the candidate for output: the explain text if present,
// otherwise text[weight].
func (c *Candidate) String() string {
	if c.Explain != "" {
		return c.Explain
	}
	return c.Text + "[" + strconv.FormatFloat(c.Weight, 'f', -1, 64) + "]"
}

// Before orders candidates by weight descending, then text ascending.
func Before(a, b *Candidate) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return a.Text < b.Text
}

// List is an ordered set of candidates.
type List []*Candidate

// Sort orders the list with Before.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool { return Before(l[i], l[j]) })
}

// SetRanks assigns 1-based ranks in list order.
func (l List) SetRanks() {
	for i, c := range l {
		c.Rank = i + 1
	}
}

// Find returns the candidate whose text equals query.
func (l List) Find(query string) (*Candidate, bool) {
	for _, c := range l {
		if c != nil && c.Text == query {
			return c, true
		}
	}
	return nil, false
}

// Join renders every candidate separated by sep.
func (l List) Join(sep string) string {
	parts := make([]string, 0, len(l))
	for _, c := range l {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, sep)
}

// Texts returns the candidate texts in order.
func (l List) Texts() []string {
	out := make([]string, 0, len(l))
	for _, c := range l {
		out = append(out, c.Text)
	}
	return out
}
