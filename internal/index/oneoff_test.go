package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

func TestReadOneOff(t *testing.T) {
	set, err := ReadOneOff(strings.NewReader("rare query\r\n\nanother one\n"))
	require.NoError(t, err)
	assert.True(t, set.Contains("rare query"))
	assert.True(t, set.Contains("another one"))
	assert.False(t, set.Contains(""))
	assert.Len(t, set, 2)
}

func TestLoadOneOffMissingFile(t *testing.T) {
	_, err := LoadOneOff(filepath.Join(t.TempDir(), "aol-oneoffqueries.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingInput)
}

func TestLoadOneOffFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("x\ny\n"), 0o644))
	set, err := LoadOneOff(path)
	require.NoError(t, err)
	assert.True(t, set.Contains("y"))
}

func TestNilOneOffSet(t *testing.T) {
	var set OneOffSet
	assert.False(t, set.Contains("anything"))
}
