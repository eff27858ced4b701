package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_loads_total",
		Help: "Total number of sales table loads",
	}, []string{"source", "status"})

	SalesLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sales_load_duration_seconds",
		Help:    "Duration of sales table loads",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	MalformedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_malformed_rows_total",
		Help: "Rows excluded while parsing the sales source",
	}, []string{"source"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_cache_hits_total",
		Help: "Total number of sales table cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_cache_misses_total",
		Help: "Total number of sales table cache misses",
	})

	DatabaseQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "database_queries_total",
		Help: "Total number of database queries",
	}, []string{"query_type", "status"})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "database_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query_type"})

	SummaryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "summary_requests_total",
		Help: "Total number of summary requests",
	}, []string{"filtered", "degraded"})

	ETLRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_runs_total",
		Help: "Total number of ETL runs",
	}, []string{"status"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RowsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_rows_ingested_total",
		Help: "Rows copied into the sales table",
	}, []string{"status"})
)

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func RecordDatabaseQuery(queryType, status string, duration float64) {
	DatabaseQueries.WithLabelValues(queryType, status).Inc()
	DatabaseQueryDuration.WithLabelValues(queryType).Observe(duration)
}

func RecordSalesLoad(source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SalesLoads.WithLabelValues(source, status).Inc()
}

func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordSummaryRequest(filtered, degraded bool) {
	SummaryRequests.WithLabelValues(boolLabel(filtered), boolLabel(degraded)).Inc()
}

func RecordETLRun(err error) {
	if err != nil {
		ETLRuns.WithLabelValues("error").Inc()
		return
	}
	ETLRuns.WithLabelValues("success").Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
