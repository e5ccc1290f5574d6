package metrics

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(zap.NewNop(), prometheus.NewRegistry())
}

func TestRecordSynthesis(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSynthesis("generation", "success", 2*time.Second)
	m.RecordSynthesis("generation", "stale", time.Second)
	m.RecordSynthesis("generation", "error", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ttsRequests.WithLabelValues("generation", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ttsRequests.WithLabelValues("generation", "stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ttsRequests.WithLabelValues("generation", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ttsResponseTime))

	var metric dto.Metric
	observer := m.ttsResponseTime.WithLabelValues("generation")
	require.NoError(t, observer.(prometheus.Metric).Write(&metric))
	assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount(), "устаревший ответ не попадает в гистограмму")
	assert.Equal(t, 3.0, metric.GetHistogram().GetSampleSum())
}

func TestRecordSync(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSync("partial", 2, 5, 1)
	m.RecordSync("success", 0, 8, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncUpserts.WithLabelValues("inserted")))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.syncUpserts.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncUpserts.WithLabelValues("failed")))
}

func TestGaugesAndPlayback(t *testing.T) {
	m := newTestMetrics(t)

	m.SetCatalogSize(12)
	m.ObserveTransientAudio("acquired", 1)
	m.ObserveTransientAudio("acquired", 2)
	m.ObserveTransientAudio("released", 1)
	m.RecordPlaybackStart("preview")

	assert.Equal(t, 12.0, testutil.ToFloat64(m.catalogVoices))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transientAudioLive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transientAudio.WithLabelValues("acquired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playbackStarts.WithLabelValues("preview")))
}

func TestUnknownMetricIsIgnored(t *testing.T) {
	m := newTestMetrics(t)

	assert.NotPanics(t, func() {
		m.IncrementCounter("no_such_metric", "x")
		m.SetGauge("no_such_gauge", 1)
		m.ObserveHistogram("no_such_histogram", 1)
	})
}

func TestHandlers(t *testing.T) {
	m := newTestMetrics(t)
	m.SetCatalogSize(3)
	h := NewHandler(m, zap.NewNop())

	rec := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "catalog_voices 3"))

	rec = httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest("GET", "/health", nil))
	var health Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "voicefy", health.Service)
}
