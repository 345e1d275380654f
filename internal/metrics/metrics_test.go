package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.PluginCreated()
		m.VersionAppended()
		m.PluginDeleted()
		m.Purchase()
		m.Download("author")
		m.Rating("new")
		m.BlobCleanupFailed()
		m.CacheLookup("hit")
		m.ObserveRequest(http.MethodGet, "/api/plugins", http.StatusOK, 0.01)
	})
}

func TestBusinessCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Purchase()
	m.Purchase()
	m.Download("purchase")
	m.Rating("update")
	m.BlobCleanupFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PurchasesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DownloadsTotal.WithLabelValues("purchase")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DownloadsTotal.WithLabelValues("author")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RatingsTotal.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobCleanupFailures))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRequest(http.MethodGet, "/api/plugins/:id", http.StatusNotFound, 0.2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketplace_http_requests_total{method="GET",path="/api/plugins/:id",status="404"} 1`)
}
