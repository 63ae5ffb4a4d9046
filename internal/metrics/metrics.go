package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds analysis pipeline metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	AnalysesTotal       *prometheus.CounterVec
	StageFailures       *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	SubtitleAcquired    *prometheus.CounterVec
	AnalysesInFlight    prometheus.Gauge
	AutocompleteQueries prometheus.Counter
}

// New creates and registers pipeline metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinesplit",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Analyze calls by outcome (cache_hit, new, failed).",
		}, []string{"outcome"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinesplit",
			Subsystem: "analysis",
			Name:      "failures_total",
			Help:      "Failed analyses by pipeline stage and error kind.",
		}, []string{"stage", "kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cinesplit",
			Subsystem: "analysis",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		SubtitleAcquired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cinesplit",
			Subsystem: "subtitle",
			Name:      "acquired_total",
			Help:      "Subtitle tracks acquired by source tier.",
		}, []string{"source"}),
		AnalysesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cinesplit",
			Subsystem: "analysis",
			Name:      "in_flight",
			Help:      "Number of analyses currently running past the cache check.",
		}),
		AutocompleteQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cinesplit",
			Subsystem: "autocomplete",
			Name:      "queries_total",
			Help:      "Autocomplete lookups.",
		}),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.StageFailures,
		m.StageDuration,
		m.SubtitleAcquired,
		m.AnalysesInFlight,
		m.AutocompleteQueries,
	)

	return m
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordOutcome counts a finished analyze call.
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
}

// RecordFailure counts a failed analysis.
func (m *Metrics) RecordFailure(stage, kind string) {
	if m == nil {
		return
	}
	m.StageFailures.WithLabelValues(stage, kind).Inc()
	m.AnalysesTotal.WithLabelValues("failed").Inc()
}

// RecordSubtitle counts an acquired subtitle by tier.
func (m *Metrics) RecordSubtitle(source string) {
	if m == nil {
		return
	}
	m.SubtitleAcquired.WithLabelValues(source).Inc()
}

// TrackInFlight increments the in-flight gauge and returns a func that
// decrements it.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.AnalysesInFlight.Inc()
	return m.AnalysesInFlight.Dec
}

// RecordAutocomplete counts an autocomplete lookup.
func (m *Metrics) RecordAutocomplete() {
	if m == nil {
		return
	}
	m.AutocompleteQueries.Inc()
}
