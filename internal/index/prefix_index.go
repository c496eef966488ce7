package index

// PrefixIndex maps a fixed-length prefix to the queries sharing it, each
// with a running frequency. Every entry in the flat lookup is also reachable
// through its prefix bucket; queries shorter than the prefix length are
// never stored.
type PrefixIndex struct {
	prefixLength int
	byPrefix     map[string]map[string]*Entry
	byQuery      map[string]*Entry
	newEntry     EntryFactory
}

func NewPrefixIndex(prefixLength int, factory EntryFactory) *PrefixIndex {
	if factory == nil {
		factory = NewEntry
	}
	return &PrefixIndex{
		prefixLength: prefixLength,
		byPrefix:     make(map[string]map[string]*Entry),
		byQuery:      make(map[string]*Entry),
		newEntry:     factory,
	}
}

// Add records one observation of query. One-off queries get a throwaway
// entry at frequency 1 that is not stored. Returns nil when the query is
// too short to have a prefix.
func (p *PrefixIndex) Add(query string, oneOff bool) *Entry {
	if oneOff {
		e := p.newEntry(query)
		e.Frequency = 1
		return e
	}
	prefix, ok := PrefixOf(query, p.prefixLength)
	if !ok {
		return nil
	}
	if e, ok := p.byQuery[query]; ok {
		e.Frequency++
		return e
	}

	e := p.newEntry(query)
	e.Frequency = 1
	p.byQuery[query] = e
	bucket, ok := p.byPrefix[prefix]
	if !ok {
		bucket = make(map[string]*Entry)
		p.byPrefix[prefix] = bucket
	}
	bucket[query] = e
	return e
}

// Entries returns a snapshot of the entries stored under prefix. ok is
// false when nothing was ever stored under it; a prefix whose queries have
// all been deleted returns no entries and true.
func (p *PrefixIndex) Entries(prefix string) (entries []*Entry, ok bool) {
	bucket, ok := p.byPrefix[prefix]
	if !ok {
		return nil, false
	}
	entries = make([]*Entry, 0, len(bucket))
	for _, e := range bucket {
		entries = append(entries, e)
	}
	return entries, true
}

// Entry looks up a stored query.
func (p *PrefixIndex) Entry(query string) (*Entry, bool) {
	e, ok := p.byQuery[query]
	return e, ok
}

// Delete lowers the frequency of query by count, or drops it outright when
// removeAll is set. Entries reaching zero are removed from both maps; the
// prefix itself stays known even when its last query goes.
func (p *PrefixIndex) Delete(query string, count float64, removeAll bool) {
	prefix, ok := PrefixOf(query, p.prefixLength)
	if !ok {
		return
	}
	e, ok := p.byQuery[query]
	if !ok {
		return
	}
	if !removeAll {
		e.Frequency -= count
		if e.Frequency > 0 {
			return
		}
	}

	delete(p.byQuery, query)
	if bucket, ok := p.byPrefix[prefix]; ok {
		delete(bucket, query)
	}
}

// Len is the number of unique stored queries.
func (p *PrefixIndex) Len() int { return len(p.byQuery) }

// Prefixes is the number of prefixes that have ever held a stored query.
func (p *PrefixIndex) Prefixes() int { return len(p.byPrefix) }

func (p *PrefixIndex) PrefixLength() int { return p.prefixLength }
