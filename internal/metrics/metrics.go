// Package metrics exposes Prometheus counters and histograms for the search pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SourceAttempts *prometheus.CounterVec
	SourceLatency  *prometheus.HistogramVec
	Rejections     *prometheus.CounterVec
	LimitDenials   *prometheus.CounterVec
	Searches       *prometheus.CounterVec
	SearchLatency  prometheus.Histogram
	Questions      *prometheus.CounterVec
}

// New creates collectors on a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SourceAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gunggeum_source_attempts_total",
			Help: "Source chain steps by source and outcome",
		}, []string{"source", "outcome"}),
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gunggeum_source_duration_seconds",
			Help:    "Source chain step latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 7},
		}, []string{"source"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gunggeum_guard_rejections_total",
			Help: "Queries rejected by the abuse gate by reason",
		}, []string{"reason"}),
		LimitDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gunggeum_limit_denials_total",
			Help: "Requests denied by rate limits by kind",
		}, []string{"kind"}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gunggeum_searches_total",
			Help: "Search requests by result",
		}, []string{"result"}),
		SearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gunggeum_search_duration_seconds",
			Help:    "End-to-end search latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}),
		Questions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gunggeum_questions_total",
			Help: "Follow-up question requests by result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSource records one chain step.
func (m *Metrics) ObserveSource(source string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.SourceAttempts.WithLabelValues(source, outcome).Inc()
	m.SourceLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveRejection records an abuse gate rejection.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

// ObserveLimit records a rate limit denial.
func (m *Metrics) ObserveLimit(kind string) {
	if m == nil {
		return
	}
	m.LimitDenials.WithLabelValues(kind).Inc()
}

// ObserveSearch records a finished search.
func (m *Metrics) ObserveSearch(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(result).Inc()
	m.SearchLatency.Observe(elapsed.Seconds())
}

// ObserveQuestion records a finished follow-up question.
func (m *Metrics) ObserveQuestion(result string) {
	if m == nil {
		return
	}
	m.Questions.WithLabelValues(result).Inc()
}
