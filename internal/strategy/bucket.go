package strategy

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/ranking"
)

// BucketBased keeps one bounded FIFO bucket per prefix and suggests from its
// current contents.
type BucketBased struct {
	Base
	qMaxSum       int
	qMaxFrequency int
	factory       index.EntryFactory
	buckets       map[string]*index.Bucket
}

func NewBucketBased(qMaxSum, qMaxFrequency int, factory index.EntryFactory) *BucketBased {
	return &BucketBased{
		Base:          Base{name: TypeBucket},
		qMaxSum:       qMaxSum,
		qMaxFrequency: qMaxFrequency,
		factory:       factory,
		buckets:       make(map[string]*index.Bucket),
	}
}

func (s *BucketBased) Complete(_ time.Time, partial, full string) (ranking.List, error) {
	b, ok := s.buckets[partial]
	if !ok {
		b = index.NewBucket(s.qMaxSum, s.qMaxFrequency, s.factory)
		s.buckets[partial] = b
	}
	if b.Unique() == 0 {
		b.Add(full)
		return nil, nil
	}
	list := candidates(b.Entries())
	b.Add(full)
	return list, nil
}

// Bucket returns the bucket for prefix, if one exists.
func (s *BucketBased) Bucket(prefix string) (*index.Bucket, bool) {
	b, ok := s.buckets[prefix]
	return b, ok
}

func (s *BucketBased) Size() (int, int) {
	entries := 0
	for _, b := range s.buckets {
		entries += b.Unique()
	}
	return entries, len(s.buckets)
}
