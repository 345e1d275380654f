// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API. A nil *Metrics is
// valid and records nothing, which keeps services usable without a registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	PluginsCreatedTotal  prometheus.Counter
	PluginVersionsTotal  prometheus.Counter
	PluginsDeletedTotal  prometheus.Counter
	PurchasesTotal       prometheus.Counter
	DownloadsTotal       *prometheus.CounterVec
	RatingsTotal         *prometheus.CounterVec
	BlobCleanupFailures  prometheus.Counter
	CatalogCacheRequests *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketplace_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PluginsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_plugins_created_total",
			Help: "Total number of plugins created",
		}),
		PluginVersionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_plugin_versions_total",
			Help: "Total number of plugin versions appended by updates",
		}),
		PluginsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_plugins_deleted_total",
			Help: "Total number of plugins deleted",
		}),
		PurchasesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_purchases_total",
			Help: "Total number of recorded purchases",
		}),
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_downloads_total",
				Help: "Total number of artifact downloads by entitlement",
			},
			[]string{"entitlement"},
		),
		RatingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_ratings_total",
				Help: "Total number of ratings submitted",
			},
			[]string{"kind"},
		),
		BlobCleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_blob_cleanup_failures_total",
			Help: "Total number of blobs that could not be removed after a plugin change",
		}),
		CatalogCacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketplace_catalog_cache_requests_total",
				Help: "Catalog cache lookups by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PluginsCreatedTotal,
		m.PluginVersionsTotal,
		m.PluginsDeletedTotal,
		m.PurchasesTotal,
		m.DownloadsTotal,
		m.RatingsTotal,
		m.BlobCleanupFailures,
		m.CatalogCacheRequests,
	)

	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PluginCreated() {
	if m != nil {
		m.PluginsCreatedTotal.Inc()
	}
}

func (m *Metrics) VersionAppended() {
	if m != nil {
		m.PluginVersionsTotal.Inc()
	}
}

func (m *Metrics) PluginDeleted() {
	if m != nil {
		m.PluginsDeletedTotal.Inc()
	}
}

func (m *Metrics) Purchase() {
	if m != nil {
		m.PurchasesTotal.Inc()
	}
}

// Download records a download; entitlement is "author" or "purchase".
func (m *Metrics) Download(entitlement string) {
	if m != nil {
		m.DownloadsTotal.WithLabelValues(entitlement).Inc()
	}
}

// Rating records a rating; kind is "new" or "update".
func (m *Metrics) Rating(kind string) {
	if m != nil {
		m.RatingsTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) BlobCleanupFailed() {
	if m != nil {
		m.BlobCleanupFailures.Inc()
	}
}

// CacheLookup records a catalog cache lookup; result is "hit", "miss" or "error".
func (m *Metrics) CacheLookup(result string) {
	if m != nil {
		m.CatalogCacheRequests.WithLabelValues(result).Inc()
	}
}

// ObserveRequest records one served HTTP request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}
