// Package metrics provides the Prometheus metrics of the ticket pipeline.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/confidence"
)

// PipelineMetrics holds every collector the service exports. A nil *PipelineMetrics is a no-op.
type PipelineMetrics struct {
	submissionsTotal    *prometheus.CounterVec
	ocrDuration         *prometheus.HistogramVec
	ocrConfidence       prometheus.Histogram
	ruleResultsTotal    *prometheus.CounterVec
	validationScore     prometheus.Histogram
	scoringTasksTotal   *prometheus.CounterVec
	fieldConfidence     *prometheus.HistogramVec
	anomaliesTotal      *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	registry            *prometheus.Registry
}

// NewPipelineMetrics creates the collectors and registers them on registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_submissions_total",
		Help: "OCR submissions by document kind and outcome.",
	}, []string{"kind", "outcome"})

	m.ocrDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticket_ocr_duration_seconds",
		Help:    "Duration of text extraction calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"provider"})

	m.ocrConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticket_ocr_confidence",
		Help:    "OCR confidence of accepted submissions.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.ruleResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_validation_rule_results_total",
		Help: "Validation rule outcomes by rule type and status.",
	}, []string{"rule_type", "status"})

	m.validationScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticket_validation_confidence",
		Help:    "Overall validation confidence per ticket.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	m.scoringTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_scoring_tasks_total",
		Help: "Background scoring tasks by outcome.",
	}, []string{"outcome"})

	m.fieldConfidence = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticket_field_confidence",
		Help:    "Historical-baseline confidence per scored field.",
		Buckets: []float64{0.25, 0.4, 0.5, 0.55, 0.7, 0.85, 0.95},
	}, []string{"field", "baseline"})

	m.anomaliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_field_anomalies_total",
		Help: "Scored fields below the anomaly threshold.",
	}, []string{"field", "severity"})

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticket_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
}

func (m *PipelineMetrics) RecordSubmission(kind constants.DocKind, outcome string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.submissionsTotal.WithLabelValues(string(kind), outcome).Inc()
}

func (m *PipelineMetrics) ObserveOCR(provider string, d time.Duration, conf float64) {
	if m == nil {
		return
	}
	m.ocrDuration.WithLabelValues(provider).Observe(d.Seconds())
	m.ocrConfidence.Observe(conf)
}

// ObserveRule satisfies validation.Observer.
func (m *PipelineMetrics) ObserveRule(ruleType constants.RuleType, status constants.ResultStatus) {
	if m == nil {
		return
	}
	m.ruleResultsTotal.WithLabelValues(string(ruleType), string(status)).Inc()
}

func (m *PipelineMetrics) ObserveValidation(score float64) {
	if m == nil {
		return
	}
	m.validationScore.Observe(score)
}

func (m *PipelineMetrics) RecordScoringTask(outcome string) {
	if m == nil {
		return
	}
	m.scoringTasksTotal.WithLabelValues(outcome).Inc()
}

// ObserveFieldScore records a baseline score and counts it as an anomaly when it falls below 0.5.
func (m *PipelineMetrics) ObserveFieldScore(field string, baseline constants.BaselineType, score float64) {
	if m == nil {
		return
	}
	m.fieldConfidence.WithLabelValues(field, string(baseline)).Observe(score)
	if confidence.IsAnomaly(score) {
		m.anomaliesTotal.WithLabelValues(field, confidence.AnomalySeverity(score)).Inc()
	}
}

func (m *PipelineMetrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry the metrics were registered on.
func (m *PipelineMetrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.submissionsTotal.Describe(ch)
	m.ocrDuration.Describe(ch)
	m.ocrConfidence.Describe(ch)
	m.ruleResultsTotal.Describe(ch)
	m.validationScore.Describe(ch)
	m.scoringTasksTotal.Describe(ch)
	m.fieldConfidence.Describe(ch)
	m.anomaliesTotal.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.submissionsTotal.Collect(ch)
	m.ocrDuration.Collect(ch)
	m.ocrConfidence.Collect(ch)
	m.ruleResultsTotal.Collect(ch)
	m.validationScore.Collect(ch)
	m.scoringTasksTotal.Collect(ch)
	m.fieldConfidence.Collect(ch)
	m.anomaliesTotal.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
}
