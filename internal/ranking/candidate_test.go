package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateString(t *testing.T) {
	assert.Equal(t, "cats[3]", (&Candidate{Text: "cats", Weight: 3}).String())
	assert.Equal(t, "cats[2.12345]", (&Candidate{Text: "cats", Weight: 2.12345}).String())
	assert.Equal(t, "why", (&Candidate{Text: "cats", Weight: 3, Explain: "why"}).String())
}

func TestListSortRanksAndFind(t *testing.T) {
	l := List{
		{Text: "carpet", Weight: 2},
		{Text: "cats", Weight: 9},
		{Text: "cards", Weight: 4},
		{Text: "car", Weight: 4},
	}
	l.Sort()
	l.SetRanks()
	assert.Equal(t, []string{"cats", "car", "cards", "carpet"}, l.Texts())

	c, ok := l.Find("cards")
	require.True(t, ok)
	assert.Equal(t, 3, c.Rank)

	_, ok = l.Find("dogs")
	assert.False(t, ok)
	assert.Equal(t, "cats[9];car[4];cards[4];carpet[2]", l.Join(";"))
}
