package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// Счетчики
	ttsRequests    *prometheus.CounterVec
	syncUpserts    *prometheus.CounterVec
	syncRuns       *prometheus.CounterVec
	playbackStarts *prometheus.CounterVec
	transientAudio *prometheus.CounterVec

	// Гистограммы
	ttsResponseTime *prometheus.HistogramVec

	// Gauge метрики
	catalogVoices      prometheus.Gauge
	transientAudioLive prometheus.Gauge

	// Мьютекс для thread-safety
	mu sync.RWMutex
}

// New создает метрики и регистрирует их в reg.
// nil reg означает глобальный реестр Prometheus.
func New(logger *zap.Logger, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logger: logger,

		// Счетчики запросов синтеза
		ttsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_requests_total",
				Help: "Общее количество запросов синтеза речи",
			},
			[]string{"kind", "status"}, // kind: generation; status: success, error, stale
		),

		// Счетчики upsert при синхронизации
		syncUpserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_sync_upserts_total",
				Help: "Количество upsert голосов провайдера",
			},
			[]string{"result"}, // inserted, updated, failed
		),

		syncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_sync_runs_total",
				Help: "Количество запусков синхронизации каталога",
			},
			[]string{"status"}, // success, partial, error
		),

		playbackStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playback_starts_total",
				Help: "Количество запусков воспроизведения",
			},
			[]string{"source"}, // preview, generated
		),

		transientAudio: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transient_audio_total",
				Help: "События жизненного цикла временных аудио ресурсов",
			},
			[]string{"event"}, // acquired, released
		),

		// Гистограмма времени ответа провайдера
		ttsResponseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tts_response_time_seconds",
				Help:    "Время ответа провайдера синтеза в секундах",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"kind"},
		),

		catalogVoices: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_voices",
				Help: "Количество голосов в загруженном каталоге",
			},
		),

		transientAudioLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "transient_audio_live",
				Help: "Количество живых временных аудио ресурсов",
			},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}

	// Регистрируем все метрики
	reg.MustRegister(
		m.ttsRequests,
		m.syncUpserts,
		m.syncRuns,
		m.playbackStarts,
		m.transientAudio,
		m.ttsResponseTime,
		m.catalogVoices,
		m.transientAudioLive,
	)

	return m
}

// IncrementCounter увеличивает счетчик
func (m *Metrics) IncrementCounter(name string, labels ...string) {
	m.AddCounter(name, 1, labels...)
}

// AddCounter увеличивает счетчик на value
func (m *Metrics) AddCounter(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counter *prometheus.CounterVec

	switch name {
	case "tts_requests_total":
		counter = m.ttsRequests
	case "voice_sync_upserts_total":
		counter = m.syncUpserts
	case "voice_sync_runs_total":
		counter = m.syncRuns
	case "playback_starts_total":
		counter = m.playbackStarts
	case "transient_audio_total":
		counter = m.transientAudio
	default:
		m.logger.Error("неизвестная метрика", zap.String("name", name))
		return
	}

	counter.WithLabelValues(labels...).Add(value)
	m.logger.Debug("метрика увеличена", zap.String("metric", name), zap.Strings("labels", labels))
}

// SetGauge устанавливает значение gauge метрики
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var gauge prometheus.Gauge

	switch name {
	case "catalog_voices":
		gauge = m.catalogVoices
	case "transient_audio_live":
		gauge = m.transientAudioLive
	default:
		m.logger.Error("неизвестная gauge метрика", zap.String("name", name))
		return
	}

	gauge.Set(value)
}

// ObserveHistogram добавляет наблюдение в гистограмму
func (m *Metrics) ObserveHistogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case "tts_response_time":
		m.ttsResponseTime.WithLabelValues(labels...).Observe(value)
	default:
		m.logger.Error("неизвестная гистограмма", zap.String("name", name))
		return
	}
}

// RecordSynthesis записывает запрос синтеза. Устаревшие ответы не попадают в гистограмму.
func (m *Metrics) RecordSynthesis(kind, status string, d time.Duration) {
	m.IncrementCounter("tts_requests_total", kind, status)
	if status != "stale" {
		m.ObserveHistogram("tts_response_time", d.Seconds(), kind)
	}
}

// RecordPlaybackStart записывает запуск воспроизведения
func (m *Metrics) RecordPlaybackStart(sourceKind string) {
	m.IncrementCounter("playback_starts_total", sourceKind)
}

// RecordSync записывает итог синхронизации каталога
func (m *Metrics) RecordSync(status string, inserted, updated, failed int) {
	m.IncrementCounter("voice_sync_runs_total", status)
	m.AddCounter("voice_sync_upserts_total", float64(inserted), "inserted")
	m.AddCounter("voice_sync_upserts_total", float64(updated), "updated")
	m.AddCounter("voice_sync_upserts_total", float64(failed), "failed")
}

// ObserveTransientAudio записывает выделение или освобождение временного ресурса
func (m *Metrics) ObserveTransientAudio(event string, live int) {
	m.IncrementCounter("transient_audio_total", event)
	m.SetGauge("transient_audio_live", float64(live))
}

// SetCatalogSize обновляет размер каталога
func (m *Metrics) SetCatalogSize(n int) {
	m.SetGauge("catalog_voices", float64(n))
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
