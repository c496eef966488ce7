package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/errors"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Evaluation.Workers)
	assert.Equal(t, 1000, cfg.Evaluation.QueueDepth)
	assert.True(t, cfg.Evaluation.Concurrent)
	assert.Equal(t, "file", cfg.Output.Driver)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	yamlDoc := `
experiment:
  collection: msn
  prefixLength: 3
  type: sgdlrnomntb
  startDate: "2006-05-01"
  bucketSizes: [500, 1000]
  bucketMaxFreqs: [500, 1000]
  trainAfter: 100
evaluation:
  workers: 2
output:
  flushInterval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("QE_WORKERS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "msn", cfg.Experiment.Collection)
	assert.Equal(t, 3, cfg.Experiment.PrefixLength)
	assert.Equal(t, []int{500, 1000}, cfg.Experiment.BucketSizes)
	assert.Equal(t, 3, cfg.Evaluation.Workers)
	assert.Equal(t, 2*time.Second, cfg.Output.FlushInterval)
	assert.Equal(t, 200, cfg.Experiment.BaseBucketSize, "unset fields keep defaults")

	start, err := cfg.Experiment.Start()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2006, 5, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Experiment.PrefixLength = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)

	cfg = Default()
	cfg.Output.Driver = "s3"
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrInvalidConfig)

	cfg = Default()
	cfg.Experiment.StartDate = "01/03/2006"
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrInvalidConfig)
}

func TestDataPaths(t *testing.T) {
	d := DataConfig{Dir: "/data"}
	assert.Equal(t, "/data/aol-queries.txt", d.QueryLogPath("aol"))
	assert.Equal(t, "/data/aol-oneoffqueries.txt", d.OneOffPath("aol"))
	assert.Equal(t, "/data/aol-interleavedinput.txt", d.SideChannelPath("aol"))
	assert.Equal(t, "/data/2chars-aol-bl-w7.txt", d.OutputPath(2, "aol-bl-w7"))

	d.QueryLog = "/elsewhere/q.tsv"
	assert.Equal(t, "/elsewhere/q.tsv", d.QueryLogPath("aol"))
}
