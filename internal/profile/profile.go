// Package profile samples a query log and ranks prefixes by how often they
// occur, assigning each a priority tier.
package profile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/replay"
	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// DefaultSample is the number of queries read when no sample size is given.
const DefaultSample = 4000000

// Tier is a prefix priority. The zero value is Lowest, which is also what
// unseen prefixes get.
type Tier int

const (
	Lowest Tier = iota
	BelowNormal
	Normal
	AboveNormal
	Highest
)

func (t Tier) String() string {
	switch t {
	case Highest:
		return "highest"
	case AboveNormal:
		return "above-normal"
	case Normal:
		return "normal"
	case BelowNormal:
		return "below-normal"
	default:
		return "lowest"
	}
}

// Tiers are assigned by rank position: the top 5% of prefixes are Highest,
// up to 20% AboveNormal and so on.
var tierBounds = []struct {
	upTo float64
	tier Tier
}{
	{0.05, Highest},
	{0.2, AboveNormal},
	{0.5, Normal},
	{0.8, BelowNormal},
	{1.0, Lowest},
}

type PrefixCount struct {
	Prefix string
	Count  int
	Tier   Tier
}

type Profile struct {
	prefixLength int
	sampled      int
	trie         *patricia.Trie
	ranked       []*PrefixCount
}

// BuildFile profiles the query log at path.
func BuildFile(path string, prefixLength, maxSample int) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitFailure, "query log %s", path)
		}
		return nil, fmt.Errorf("opening query log: %w", err)
	}
	defer f.Close()
	return Build(f, prefixLength, maxSample)
}

// Build counts the prefixes of up to maxSample queries read from r.
// Queries without a full prefix are not counted.
func Build(r io.Reader, prefixLength, maxSample int) (*Profile, error) {
	if maxSample <= 0 {
		maxSample = DefaultSample
	}
	logger := slog.Default().With("component", "profile")
	logger.Info("profiling query log", "max_sample", maxSample, "prefix_length", prefixLength)

	p := &Profile{prefixLength: prefixLength, trie: patricia.NewTrie()}
	counts := make(map[string]*PrefixCount)
	queries := replay.NewQueryReader(r)
	for p.sampled < maxSample {
		q, ok, err := queries.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		prefix, ok := index.PrefixOf(strings.ToLower(q.Text), prefixLength)
		if !ok {
			continue
		}
		pc, seen := counts[prefix]
		if !seen {
			pc = &PrefixCount{Prefix: prefix}
			counts[prefix] = pc
			p.trie.Insert(patricia.Prefix(prefix), pc)
			p.ranked = append(p.ranked, pc)
		}
		pc.Count++
		p.sampled++
	}

	sort.Slice(p.ranked, func(i, j int) bool {
		if p.ranked[i].Count != p.ranked[j].Count {
			return p.ranked[i].Count > p.ranked[j].Count
		}
		return p.ranked[i].Prefix < p.ranked[j].Prefix
	})
	bound := 0
	for i, pc := range p.ranked {
		for bound < len(tierBounds)-1 && float64(i)/float64(len(p.ranked)) > tierBounds[bound].upTo {
			bound++
		}
		pc.Tier = tierBounds[bound].tier
	}

	logger.Info("profiling finished", "queries", p.sampled, "prefixes", len(p.ranked))
	return p, nil
}

// Tier returns the priority of prefix, Lowest if it was never sampled.
func (p *Profile) Tier(prefix string) Tier {
	if item := p.trie.Get(patricia.Prefix(prefix)); item != nil {
		return item.(*PrefixCount).Tier
	}
	return Lowest
}

func (p *Profile) Count(prefix string) int {
	if item := p.trie.Get(patricia.Prefix(prefix)); item != nil {
		return item.(*PrefixCount).Count
	}
	return 0
}

// Under lists the sampled prefixes starting with stem, most frequent first.
func (p *Profile) Under(stem string) []PrefixCount {
	var out []PrefixCount
	_ = p.trie.VisitSubtree(patricia.Prefix(stem), func(_ patricia.Prefix, item patricia.Item) error {
		out = append(out, *item.(*PrefixCount))
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Prefix < out[j].Prefix
	})
	return out
}

// Top returns the n most frequent prefixes.
func (p *Profile) Top(n int) []PrefixCount {
	n = min(n, len(p.ranked))
	out := make([]PrefixCount, n)
	for i := range out {
		out[i] = *p.ranked[i]
	}
	return out
}

// TierSizes counts prefixes per tier.
func (p *Profile) TierSizes() map[Tier]int {
	sizes := make(map[Tier]int, len(tierBounds))
	for _, pc := range p.ranked {
		sizes[pc.Tier]++
	}
	return sizes
}

// Sampled is the number of queries counted.
func (p *Profile) Sampled() int { return p.sampled }

// Len is the number of distinct prefixes.
func (p *Profile) Len() int { return len(p.ranked) }

func (p *Profile) PrefixLength() int { return p.prefixLength }
