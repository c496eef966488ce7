package index

// Bucket is a fixed-capacity FIFO multiset of query occurrences (an NTB).
// Total occurrences never exceed the capacity and no query's frequency
// exceeds the per-key cap. When full, the oldest occurrence is evicted and
// handed to the eviction callback, which lets buckets be chained into
// non-overlapping windows of increasing age.
type Bucket struct {
	capacity  int
	perKeyCap int

	// ring holds raw occurrences; head is the oldest.
	ring []string
	head int
	size int

	entries  []*Entry
	position map[string]int

	newEntry EntryFactory
	onEvict  func(query string)
}

// NewBucket creates a bucket. capacity and perKeyCap must be positive; a nil
// factory selects NewEntry.
func NewBucket(capacity, perKeyCap int, factory EntryFactory) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if perKeyCap < 1 {
		perKeyCap = 1
	}
	if factory == nil {
		factory = NewEntry
	}
	return &Bucket{
		capacity:  capacity,
		perKeyCap: perKeyCap,
		ring:      make([]string, capacity),
		position:  make(map[string]int),
		newEntry:  factory,
	}
}

// OnEvict registers the callback fired with each evicted occurrence.
func (b *Bucket) OnEvict(fn func(query string)) {
	b.onEvict = fn
}

// Chain wires each bucket's evictions into the next bucket's Add, so bucket
// i+1 only ever sees occurrences that aged out of bucket i.
func Chain(buckets ...*Bucket) {
	for i := 0; i+1 < len(buckets); i++ {
		next := buckets[i+1]
		buckets[i].OnEvict(func(query string) {
			next.Add(query)
		})
	}
}

// Add records one occurrence of query. It reports false when the query is
// already at the per-key cap, in which case nothing changes.
func (b *Bucket) Add(query string) bool {
	if b.atCap(query) {
		return false
	}
	if b.size == b.capacity {
		evicted := b.evictOldest()
		if b.onEvict != nil {
			b.onEvict(evicted)
		}
		if b.atCap(query) {
			return false
		}
	}

	b.ring[(b.head+b.size)%b.capacity] = query
	b.size++

	if i, ok := b.position[query]; ok {
		b.entries[i].Frequency++
		return true
	}
	e := b.newEntry(query)
	e.Frequency = 1
	b.position[query] = len(b.entries)
	b.entries = append(b.entries, e)
	return true
}

func (b *Bucket) atCap(query string) bool {
	i, ok := b.position[query]
	return ok && b.entries[i].Frequency >= float64(b.perKeyCap)
}

func (b *Bucket) evictOldest() string {
	query := b.ring[b.head]
	b.ring[b.head] = ""
	b.head = (b.head + 1) % b.capacity
	b.size--

	i := b.position[query]
	e := b.entries[i]
	e.Frequency--
	if e.Frequency <= 0 {
		last := len(b.entries) - 1
		b.entries[i] = b.entries[last]
		b.position[b.entries[i].Query] = i
		b.entries[last] = nil
		b.entries = b.entries[:last]
		delete(b.position, query)
	}
	return query
}

// Frequency returns the occurrences of query currently held, 0 if absent.
func (b *Bucket) Frequency(query string) float64 {
	if i, ok := b.position[query]; ok {
		return b.entries[i].Frequency
	}
	return 0
}

// Entries returns a snapshot of the live entries.
func (b *Bucket) Entries() []*Entry {
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Unique is the number of distinct queries held.
func (b *Bucket) Unique() int { return len(b.entries) }

// Len is the number of raw occurrences held.
func (b *Bucket) Len() int { return b.size }

func (b *Bucket) Capacity() int { return b.capacity }

func (b *Bucket) Full() bool { return b.size == b.capacity }
