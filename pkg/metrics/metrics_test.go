package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNewUsesIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()

	a.QueriesSubmitted.Add(3)
	assert.Contains(t, scrape(t, a), "qac_queries_submitted_total 3")
	assert.Contains(t, scrape(t, b), "qac_queries_submitted_total 0")
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RunningMRR.Set(0.25)
	m.RecordsScored.WithLabelValues("hit").Inc()

	body := scrape(t, m)
	assert.Contains(t, body, "qac_mean_reciprocal_rank 0.25")
	assert.Contains(t, body, `qac_records_scored_total{outcome="hit"} 1`)
}
