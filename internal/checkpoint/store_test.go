package checkpoint

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/model"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func trainedModel() *model.Model {
	m := model.New(model.Config{Features: 2, Scale: 10, Horizon: 5})
	for i := 0; i < 50; i++ {
		m.Train(&model.FeaturePackage{Query: "cats", Features: []float64{4, 8}, Target: 3})
	}
	return m
}

func TestSaveAndLoad(t *testing.T) {
	s, _ := newTestStore(t)
	m := trainedModel()
	saved := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Save(Checkpoint{
		RunID:           "aol-sgdlrnomntb500,1000-500,1000-t100",
		SavedAt:         saved,
		QueryCount:      1234,
		PackagesTrained: 7,
		Model:           m.Snapshot(),
	}))

	cp, err := s.Load("aol-sgdlrnomntb500,1000-500,1000-t100")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 1234, cp.QueryCount)
	assert.Equal(t, 7, cp.PackagesTrained)
	assert.True(t, saved.Equal(cp.SavedAt))
	assert.Equal(t, m.Snapshot(), cp.Model)
}

func TestLoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	cp, err := s.Load("nope")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestRestoreIntoAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	src := trainedModel()
	require.NoError(t, s.Save(Checkpoint{RunID: "run", Model: src.Snapshot()}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	dst := model.New(model.Config{Features: 2, Scale: 10, Horizon: 5})
	ok, err := reopened.RestoreInto("run", dst)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, src.Stats(), dst.Stats())

	ok, err = reopened.RestoreInto("other", dst)
	require.NoError(t, err)
	assert.False(t, ok)

	wrong := model.New(model.Config{Features: 3})
	_, err = reopened.RestoreInto("run", wrong)
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.Save(Checkpoint{RunID: id, Model: trainedModel().Snapshot()}))
	}
	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, s.Delete("b"))
	ids, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
}
