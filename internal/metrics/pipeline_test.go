package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/constants"
)

func newTestMetrics(t *testing.T) *PipelineMetrics {
	t.Helper()
	m, err := NewPipelineMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPipelineMetrics(reg)
	require.NoError(t, err)
	_, err = NewPipelineMetrics(reg)
	assert.Error(t, err)
}

func TestRuleAndSubmissionCounters(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveRule(constants.RuleWeight, constants.ResultWarning)
	m.ObserveRule(constants.RuleWeight, constants.ResultWarning)
	m.ObserveRule(constants.RuleDistance, constants.ResultCorrected)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ruleResultsTotal.WithLabelValues("weight", "warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ruleResultsTotal.WithLabelValues("distance", "corrected")))

	m.RecordSubmission(constants.KindTicket, "ok")
	m.RecordSubmission("", "invalid_input")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("ticket", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("unknown", "invalid_input")))
}

func TestObserveFieldScore_CountsAnomalies(t *testing.T) {
	m := newTestMetrics(t)
	tests := []struct {
		score    float64
		severity string
		anomaly  bool
	}{
		{0.95, "low", false},
		{0.55, "medium", false},
		{0.40, "high", true},
		{0.25, "critical", true},
	}
	for _, tt := range tests {
		m.ObserveFieldScore("quantity", constants.BaselineDriver, tt.score)
		want := 0.0
		if tt.anomaly {
			want = 1
		}
		assert.Equal(t, want, testutil.ToFloat64(m.anomaliesTotal.WithLabelValues("quantity", tt.severity)), "score %v", tt.score)
	}
}

func TestHTTPAndTasks(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveHTTP("POST", "/api/ocr/upload", 201, 20*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)
	m.RecordScoringTask("failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/ocr/upload", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scoringTasksTotal.WithLabelValues("failed")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.ObserveRule(constants.RulePhoto, constants.ResultPassed)
		m.ObserveOCR("azure", time.Second, 0.9)
		m.ObserveValidation(0.8)
		m.RecordScoringTask("ok")
		m.ObserveFieldScore("quantity", constants.BaselineGlobal, 0.1)
		m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
		m.RecordSubmission(constants.KindHR, "ok")
	})
}
