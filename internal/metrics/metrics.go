// Package metrics reports search and scoring activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fastcos"

// Outcomes of a search.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeShape   = "shape_mismatch"
	OutcomeFailed  = "failed"
)

// SearchMetrics holds the search collectors. A nil *SearchMetrics records nothing.
type SearchMetrics struct {
	searches       *prometheus.CounterVec
	duration       prometheus.Histogram
	scored         prometheus.Counter
	absentSegments prometheus.Counter
	segments       prometheus.Gauge
}

// NewSearchMetrics registers the collectors with reg. A nil reg disables metrics.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	if reg == nil {
		return nil
	}
	return &SearchMetrics{
		searches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Number of search requests by outcome",
		}, []string{"outcome"}),
		duration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent answering search requests",
			Buckets:   prometheus.DefBuckets,
		}),
		scored: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_scored_total",
			Help:      "Number of documents scored by vector similarity",
		}),
		absentSegments: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_without_field_total",
			Help:      "Number of segments scored 0 because they hold no value for the requested field",
		}),
		segments: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "Number of stored segments",
		}),
	}
}

// ObserveSearch records a finished search.
func (m *SearchMetrics) ObserveSearch(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
}

// AddScored counts scored documents.
func (m *SearchMetrics) AddScored(n int) {
	if m == nil {
		return
	}
	m.scored.Add(float64(n))
}

// IncAbsentField counts a segment without the requested field.
func (m *SearchMetrics) IncAbsentField() {
	if m == nil {
		return
	}
	m.absentSegments.Inc()
}

// SetSegments sets the stored segment count.
func (m *SearchMetrics) SetSegments(n int) {
	if m == nil {
		return
	}
	m.segments.Set(float64(n))
}
