package index

import "time"

// JournalEntry is one timestamped observation in a Journal.
type JournalEntry struct {
	Time  time.Time
	Query string
	next  *JournalEntry
}

// Journal is a singly linked FIFO of observations. Callers must append in
// non-decreasing time order; the journal never sorts. Not safe for
// concurrent use.
type Journal struct {
	head  *JournalEntry
	tail  *JournalEntry
	count int
}

func NewJournal() *Journal {
	return &Journal{}
}

// Append attaches e at the tail.
func (j *Journal) Append(e *JournalEntry) {
	e.next = nil
	if j.tail == nil {
		j.head = e
	} else {
		j.tail.next = e
	}
	j.tail = e
	j.count++
}

// EvictBefore detaches every entry at the head whose time is before cutoff
// and returns them oldest first.
func (j *Journal) EvictBefore(cutoff time.Time) []*JournalEntry {
	var evicted []*JournalEntry
	for j.head != nil && j.head.Time.Before(cutoff) {
		e := j.head
		j.head = e.next
		e.next = nil
		evicted = append(evicted, e)
		j.count--
	}
	if j.head == nil {
		j.tail = nil
	}
	return evicted
}

// Oldest returns the head entry, or nil when empty.
func (j *Journal) Oldest() *JournalEntry {
	return j.head
}

func (j *Journal) Len() int {
	return j.count
}
