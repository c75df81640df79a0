// Package metrics exposes Prometheus instrumentation for chart building and
// rectification sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/lagna/internal/model"
)

const namespace = "lagna"

// Metrics holds every collector. A nil *Metrics records nothing.
type Metrics struct {
	sessionsActive   prometheus.Gauge
	sessionsTotal    *prometheus.CounterVec
	evidenceTotal    *prometheus.CounterVec
	questionsTotal   *prometheus.CounterVec
	gridBuildSeconds prometheus.Histogram
	gridCandidates   prometheus.Histogram
	chartsBuilt      prometheus.Counter
	confidence       prometheus.Histogram
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// sessionsActive tracks sessions held in the store
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Rectification sessions currently held in the store",
		}),
		sessionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Rectification sessions by lifecycle event",
		}, []string{"event"}),
		evidenceTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_applied_total",
			Help:      "Evidence items applied by tag and result",
		}, []string{"tag", "result"}),
		questionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_selected_total",
			Help:      "Questions handed out by the selector",
		}, []string{"question"}),
		gridBuildSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grid_build_duration_seconds",
			Help:      "Candidate grid build duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),
		gridCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grid_candidates",
			Help:      "Candidate instants per grid",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		chartsBuilt: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_built_total",
			Help:      "Chart snapshots built for candidate grids",
		}),
		confidence: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence",
			Help:      "Session confidence after each evidence application",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
}

// SessionCreated records a new session
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues("created").Inc()
	m.sessionsActive.Inc()
}

// SessionFailed records a session that could not be started
func (m *Metrics) SessionFailed() {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues("failed").Inc()
}

// SessionRemoved records a session leaving the store; reason is closed or expired
func (m *Metrics) SessionRemoved(reason string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(reason).Inc()
	m.sessionsActive.Dec()
}

// EvidenceApplied records one evidence application and the resulting confidence
func (m *Metrics) EvidenceApplied(tag model.EventTag, informative bool, confidence float64) {
	if m == nil {
		return
	}
	result := "uninformative"
	if informative {
		result = "informative"
	}
	m.evidenceTotal.WithLabelValues(string(tag), result).Inc()
	m.confidence.Observe(confidence)
}

// EvidenceRejected records an item refused before it reached the posterior
func (m *Metrics) EvidenceRejected(tag model.EventTag) {
	if m == nil {
		return
	}
	m.evidenceTotal.WithLabelValues(string(tag), "rejected").Inc()
}

// QuestionSelected records a question handed out by the selector
func (m *Metrics) QuestionSelected(id string) {
	if m == nil {
		return
	}
	m.questionsTotal.WithLabelValues(id).Inc()
}

// GridBuilt records one completed candidate grid
func (m *Metrics) GridBuilt(candidates int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gridBuildSeconds.Observe(elapsed.Seconds())
	m.gridCandidates.Observe(float64(candidates))
	m.chartsBuilt.Add(float64(candidates))
}
