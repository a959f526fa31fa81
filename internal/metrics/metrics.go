// Package metrics provides Prometheus metrics for the import pipeline.
// Metrics are grouped by concern: import stages, HTTP requests and the
// database pool.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prospect_crm"

// Metrics holds every collector, registered on its own registry so tests
// and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	ParseTotal         *prometheus.CounterVec
	ParseDuration      prometheus.Histogram
	RowsParsed         prometheus.Counter
	RowsValidated      *prometheus.CounterVec
	CommitTotal        *prometheus.CounterVec
	CommitDuration     prometheus.Histogram
	ProspectsCommitted prometheus.Counter
	RowsRolledBack     prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBConnections *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ParseTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "parse_total",
			Help:      "Uploaded files parsed, by result",
		}, []string{"result"}),
		ParseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing an uploaded file",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		RowsParsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_parsed_total",
			Help:      "Data rows read from uploaded files",
		}),
		RowsValidated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_validated_total",
			Help:      "Rows checked by the validator, by result",
		}, []string{"result"}),
		CommitTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "commit_total",
			Help:      "Batch commits, by result",
		}, []string{"result"}),
		CommitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "commit_duration_seconds",
			Help:      "Time spent writing a batch to the prospect store",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		ProspectsCommitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "prospects_committed_total",
			Help:      "Prospects written by successful commits",
		}),
		RowsRolledBack: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "prospects_rolled_back_total",
			Help:      "Prospects removed by batch rollbacks",
		}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),

		DBConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Database connection pool stats",
		}, []string{"state"}),
	}
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveParse records one parse attempt.
func (m *Metrics) ObserveParse(rows int, d time.Duration, err error) {
	m.ParseTotal.WithLabelValues(result(err)).Inc()
	m.ParseDuration.Observe(d.Seconds())
	if rows > 0 {
		m.RowsParsed.Add(float64(rows))
	}
}

// ObserveValidation records the outcome of one preview or commit validation.
func (m *Metrics) ObserveValidation(valid, invalid int) {
	if valid > 0 {
		m.RowsValidated.WithLabelValues("valid").Add(float64(valid))
	}
	if invalid > 0 {
		m.RowsValidated.WithLabelValues("invalid").Add(float64(invalid))
	}
}

// ObserveCommit records one store write.
func (m *Metrics) ObserveCommit(count int, d time.Duration, err error) {
	m.CommitTotal.WithLabelValues(result(err)).Inc()
	m.CommitDuration.Observe(d.Seconds())
	if err == nil {
		m.ProspectsCommitted.Add(float64(count))
	}
}

// ObserveRollback records prospects removed by a rollback.
func (m *Metrics) ObserveRollback(rows int64) {
	m.RowsRolledBack.Add(float64(rows))
}

// Middleware records request counts and latency by chi route pattern, so
// ids in paths do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// PoolStats is the subset of pgxpool statistics the collector reads.
type PoolStats interface {
	TotalConns() int32
	IdleConns() int32
	AcquiredConns() int32
}

// PoolStatsProvider returns current pool statistics.
type PoolStatsProvider interface {
	Stat() PoolStats
}

type pgxPoolAdapter struct {
	pool *pgxpool.Pool
}

func (a *pgxPoolAdapter) Stat() PoolStats {
	return a.pool.Stat()
}

// PoolStatsCollector copies database pool statistics into DBConnections
// at a fixed interval.
type PoolStatsCollector struct {
	metrics  *Metrics
	provider PoolStatsProvider
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewPoolStatsCollector watches a pgx pool.
func (m *Metrics) NewPoolStatsCollector(pool *pgxpool.Pool) *PoolStatsCollector {
	return m.NewPoolStatsCollectorWithProvider(&pgxPoolAdapter{pool: pool})
}

// NewPoolStatsCollectorWithProvider watches any stats provider.
func (m *Metrics) NewPoolStatsCollectorWithProvider(provider PoolStatsProvider) *PoolStatsCollector {
	return &PoolStatsCollector{
		metrics:  m,
		provider: provider,
		stop:     make(chan struct{}),
	}
}

// Start collects immediately, then every interval until Stop.
func (c *PoolStatsCollector) Start(interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *PoolStatsCollector) collect() {
	stats := c.provider.Stat()
	c.metrics.DBConnections.WithLabelValues("total").Set(float64(stats.TotalConns()))
	c.metrics.DBConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	c.metrics.DBConnections.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
}

// Stop ends collection and waits for the goroutine to exit.
func (c *PoolStatsCollector) Stop() {
	close(c.stop)
	c.wg.Wait()
}
