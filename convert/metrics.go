package convert

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/legaldoc/docpipe"
)

// Conversion outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnsupported = "unsupported"
	OutcomeFailed      = "failed"
	OutcomeError       = "error"
)

// Metrics holds the conversion counters on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	conversions *prometheus.CounterVec
	ocrRuns     *prometheus.CounterVec
	chunks      prometheus.Counter
	duration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the legaldoc metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldoc_conversions_total",
			Help: "Document conversions by format and outcome.",
		}, []string{"format", "outcome"}),
		ocrRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldoc_ocr_runs_total",
			Help: "OCR passes by result (used, empty).",
		}, []string{"result"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legaldoc_chunks_total",
			Help: "Chunks emitted across all conversions.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "legaldoc_conversion_duration_seconds",
			Help:    "Conversion wall time by format.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"format"}),
	}
	m.registry.MustRegister(m.conversions, m.ocrRuns, m.chunks, m.duration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeConversion(format, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.conversions.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(elapsed.Seconds())
}

func (m *Metrics) observeExtraction(d docpipe.Diagnostics, chunks int) {
	if m == nil {
		return
	}
	m.chunks.Add(float64(chunks))
	if !d.OCRAttempted {
		return
	}
	result := "empty"
	if d.OCRUsed {
		result = "used"
	}
	m.ocrRuns.WithLabelValues(result).Inc()
}
