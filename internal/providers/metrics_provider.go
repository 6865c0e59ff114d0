package providers

import (
	"fmt"
	"ringsync/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(category string, status int)
	ObserveRequestDuration(category string, duration time.Duration)
	IncCacheHits(table string)
	IncCacheMisses(table string)
	ObservePersistenceDuration(duration time.Duration)
	SetRecordsTotal(category string, count int)
	AddRowsLoaded(table string, count int)
	Flush() error
}

type MetricsProvider struct {
	registry            *prometheus.Registry
	textfile            string
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	recordsTotal        *prometheus.GaugeVec
	rowsLoaded          *prometheus.CounterVec
	lastRun             prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(category string, status int) {
	m.requestsTotal.WithLabelValues(category, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(category string, duration time.Duration) {
	m.requestDuration.WithLabelValues(category).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(table string) {
	m.cacheHits.WithLabelValues(table).Inc()
}

func (m *MetricsProvider) IncCacheMisses(table string) {
	m.cacheMisses.WithLabelValues(table).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetRecordsTotal(category string, count int) {
	m.recordsTotal.WithLabelValues(category).Set(float64(count))
}

func (m *MetricsProvider) AddRowsLoaded(table string, count int) {
	m.rowsLoaded.WithLabelValues(table).Add(float64(count))
}

// Flush writes the registry in the node-exporter textfile format. A batch
// job has no scrape endpoint, so this is the only export path.
func (m *MetricsProvider) Flush() error {
	if m.textfile == "" {
		return nil
	}
	m.lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// httpStatusBucket maps a response code to its class; 0 means the request
// never got a response.
func httpStatusBucket(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsProvider{
		registry: reg,
		textfile: conf.Metrics.Textfile,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringsync_api_requests_total",
			Help: "Total number of upstream API requests per category",
		}, []string{"category", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ringsync_api_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringsync_cache_hits_total",
			Help: "Total number of parent id cache hits per parent table",
		}, []string{"table"}),

		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringsync_cache_misses_total",
			Help: "Total number of parent id cache misses per parent table",
		}, []string{"table"}),

		persistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ringsync_snapshot_write_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		recordsTotal: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ringsync_records_fetched",
			Help: "Number of records fetched per category in the last run",
		}, []string{"category"}),

		rowsLoaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ringsync_rows_loaded_total",
			Help: "Number of rows upserted per table",
		}, []string{"table"}),

		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ringsync_last_run_timestamp_seconds",
			Help: "Unix time of the last metrics flush",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetRecordsTotal(_ string, _ int)                  {}
func (n *noopMetrics) AddRowsLoaded(_ string, _ int)                    {}
func (n *noopMetrics) Flush() error                                     { return nil }
