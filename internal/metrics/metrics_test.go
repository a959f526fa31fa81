package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/prospect-crm/internal/core"
)

var _ core.Metrics = (*Metrics)(nil)

func TestObserveParse(t *testing.T) {
	m := New()

	m.ObserveParse(120, 15*time.Millisecond, nil)
	m.ObserveParse(0, time.Millisecond, errors.New("invalid csv"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ParseTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ParseTotal.WithLabelValues("error")))
	assert.Equal(t, float64(120), testutil.ToFloat64(m.RowsParsed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ParseDuration))
}

func TestObserveValidation(t *testing.T) {
	m := New()

	m.ObserveValidation(8, 2)
	m.ObserveValidation(0, 1)

	assert.Equal(t, float64(8), testutil.ToFloat64(m.RowsValidated.WithLabelValues("valid")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RowsValidated.WithLabelValues("invalid")))
}

func TestObserveCommitAndRollback(t *testing.T) {
	m := New()

	m.ObserveCommit(5, 20*time.Millisecond, nil)
	m.ObserveCommit(7, 5*time.Millisecond, errors.New("tx aborted"))
	m.ObserveRollback(5)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommitTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommitTotal.WithLabelValues("error")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.ProspectsCommitted), "failed commits add no prospects")
	assert.Equal(t, float64(5), testutil.ToFloat64(m.RowsRolledBack))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/mappings/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/mappings/"+name, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/mappings/{name}", "404"))
	assert.Equal(t, float64(2), got)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRollback(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "prospect_crm_import_prospects_rolled_back_total 3"), "body missing rollback counter")
	assert.Contains(t, body, "go_goroutines")
}

type fakePoolStats struct{ total, idle, acquired int32 }

func (f fakePoolStats) TotalConns() int32    { return f.total }
func (f fakePoolStats) IdleConns() int32     { return f.idle }
func (f fakePoolStats) AcquiredConns() int32 { return f.acquired }

type fakeProvider struct{ stats fakePoolStats }

func (p fakeProvider) Stat() PoolStats { return p.stats }

func TestPoolStatsCollector(t *testing.T) {
	m := New()
	c := m.NewPoolStatsCollectorWithProvider(fakeProvider{stats: fakePoolStats{total: 10, idle: 7, acquired: 3}})

	c.Start(time.Hour)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.DBConnections.WithLabelValues("total")) == 10
	}, time.Second, 10*time.Millisecond)
	c.Stop()

	assert.Equal(t, float64(7), testutil.ToFloat64(m.DBConnections.WithLabelValues("idle")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DBConnections.WithLabelValues("in_use")))
}
