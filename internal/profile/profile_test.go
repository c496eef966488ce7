package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

// queryLog writes prefix aNN (NN = 00..19) 20-NN times plus one short query.
func queryLog() string {
	var b strings.Builder
	b.WriteString("Query\tQueryTime\n")
	for i := 0; i < 20; i++ {
		for n := 0; n < 20-i; n++ {
			fmt.Fprintf(&b, "A%02dquery\t2006-03-01 09:00:00\n", i)
		}
	}
	b.WriteString("ab\t2006-03-01 09:00:00\n")
	return b.String()
}

func TestBuildAssignsTiersByRank(t *testing.T) {
	p, err := Build(strings.NewReader(queryLog()), 3, 0)
	require.NoError(t, err)

	assert.Equal(t, 210, p.Sampled())
	assert.Equal(t, 20, p.Len())
	assert.Equal(t, 20, p.Count("a00"), "queries are lowercased")
	assert.Equal(t, Highest, p.Tier("a01"))
	assert.Equal(t, AboveNormal, p.Tier("a02"))
	assert.Equal(t, Normal, p.Tier("a10"))
	assert.Equal(t, BelowNormal, p.Tier("a16"))
	assert.Equal(t, Lowest, p.Tier("a19"))
	assert.Equal(t, Lowest, p.Tier("zzz"), "unseen prefixes default to lowest")

	assert.Equal(t, map[Tier]int{
		Highest:     2,
		AboveNormal: 3,
		Normal:      6,
		BelowNormal: 6,
		Lowest:      3,
	}, p.TierSizes())
}

func TestUnderAndTop(t *testing.T) {
	p, err := Build(strings.NewReader(queryLog()), 3, 0)
	require.NoError(t, err)

	under := p.Under("a1")
	require.Len(t, under, 10)
	assert.Equal(t, PrefixCount{Prefix: "a10", Count: 10, Tier: Normal}, under[0])
	assert.Equal(t, "a19", under[9].Prefix)

	top := p.Top(2)
	assert.Equal(t, []string{"a00", "a01"}, []string{top[0].Prefix, top[1].Prefix})
	assert.Len(t, p.Top(100), 20)
}

func TestBuildHonoursSampleSize(t *testing.T) {
	p, err := Build(strings.NewReader(queryLog()), 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Sampled())
	assert.Equal(t, 1, p.Len())
}

func TestBuildFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aol-queries.txt")
	require.NoError(t, os.WriteFile(path, []byte(queryLog()), 0o644))
	p, err := BuildFile(path, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 155, p.Count("a0"))
	assert.Equal(t, 211, p.Sampled())

	_, err = BuildFile(filepath.Join(t.TempDir(), "none.txt"), 2, 0)
	assert.ErrorIs(t, err, apperrors.ErrMissingInput)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "highest", Highest.String())
	assert.Equal(t, "lowest", Tier(0).String())
}
