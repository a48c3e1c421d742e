package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "survey_extractor"

	// Labels
	methodLabel  = "method"
	outcomeLabel = "outcome"
	reasonLabel  = "reason"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	visionPages *prometheus.CounterVec
	responses   *prometheus.CounterVec
	runSeconds  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "extraction runs partitioned by method and outcome",
		}, []string{methodLabel, outcomeLabel}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "times the llm path degraded to the heuristic path, by reason",
		}, []string{reasonLabel}),
		visionPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_pages_total",
			Help:      "rendered pages sent to the vision model, by outcome",
		}, []string{outcomeLabel}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_persisted_total",
			Help:      "survey responses written, by method",
		}, []string{methodLabel}),
		runSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "wall time of one extraction run",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.fallbacks, m.visionPages, m.responses, m.runSeconds)
	}
	return m
}

func (m *Metrics) RunFinished(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(method, outcome).Inc()
	m.runSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) Fallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) VisionPage(outcome string) {
	if m == nil {
		return
	}
	m.visionPages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ResponsesPersisted(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.responses.WithLabelValues(method).Add(float64(n))
}
