// Package index holds the per-strategy query stores: the prefix index, the
// bounded FIFO frequency buckets and the temporal journal used for
// time-windowed eviction.
package index

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Entry is the running frequency of one unique query inside a store.
type Entry struct {
	Query        string
	Frequency    float64
	WikiWeighted bool
}

// EntryFactory builds a fresh entry for a query on first observation.
type EntryFactory func(query string) *Entry

// NewEntry is the default EntryFactory.
func NewEntry(query string) *Entry {
	return &Entry{Query: query}
}

// RankingWeight is the value candidates built from this entry are ranked by.
func (e *Entry) RankingWeight() float64 {
	return e.Frequency
}

// Explain renders a debug description. It is empty for plain entries so the
// candidate falls back to its text[weight] form.
func (e *Entry) Explain() string {
	if !e.WikiWeighted {
		return ""
	}
	return fmt.Sprintf("%s[%s,wiki]", e.Query, strconv.FormatFloat(e.Frequency, 'f', -1, 64))
}

// PrefixOf returns the first n characters of query. ok is false when the
// query is shorter than n.
func PrefixOf(query string, n int) (prefix string, ok bool) {
	if n <= 0 {
		return "", false
	}
	count := 0
	for i := range query {
		if count == n {
			return query[:i], true
		}
		count++
	}
	if count == n {
		return query, true
	}
	return "", false
}

// Len is the length of query in characters, matching PrefixOf.
func Len(query string) int {
	return utf8.RuneCountInString(query)
}
