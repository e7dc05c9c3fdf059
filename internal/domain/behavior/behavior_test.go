package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func TestBuildBaseline_Means(t *testing.T) {
	history := []MetricSample{
		{Timestamp: t0.Add(-3 * time.Hour), Values: map[string]float64{"requests_per_minute": 10, "pages_per_session": 4}},
		{Timestamp: t0.Add(-2 * time.Hour), Values: map[string]float64{"requests_per_minute": 20}},
		{Timestamp: t0.Add(-1 * time.Hour), Values: map[string]float64{"requests_per_minute": 30, "pages_per_session": 8}},
	}

	b := BuildBaseline("user-1", history, t0)

	assert.Equal(t, "user-1", b.UserID)
	assert.InDelta(t, 20.0, b.Metrics["requests_per_minute"], 1e-9)
	assert.InDelta(t, 6.0, b.Metrics["pages_per_session"], 1e-9)
	assert.Equal(t, 3, b.SampleCount)
	assert.Equal(t, []string{"pages_per_session", "requests_per_minute"}, b.MetricNames())
}

func TestBaseline_RefreshAndStale(t *testing.T) {
	b := BuildBaseline("user-1", nil, t0)
	assert.Empty(t, b.Metrics)

	assert.False(t, b.IsStale(t0.Add(6*24*time.Hour), 7*24*time.Hour))
	assert.True(t, b.IsStale(t0.Add(8*24*time.Hour), 7*24*time.Hour))
	assert.False(t, b.IsStale(t0.Add(365*24*time.Hour), 0))

	later := t0.Add(8 * 24 * time.Hour)
	r := b.Refreshed([]MetricSample{{Values: map[string]float64{"x": 2}}}, later)
	assert.Equal(t, t0, r.CreatedAt)
	assert.Equal(t, later, r.UpdatedAt)
	assert.Equal(t, 2.0, r.Metrics["x"])
}

func TestDetectAnomalies_Threshold(t *testing.T) {
	baseline := &Baseline{Metrics: map[string]float64{"m": 10}}

	tests := []struct {
		current float64
		want    bool
	}{
		{14, false},
		{15, false},
		{16, true},
		{4, true},
		{6, false},
	}

	for _, tt := range tests {
		got := DetectAnomalies(baseline, map[string]float64{"m": tt.current}, AnomalyThreshold, t0)
		assert.Equal(t, tt.want, len(got) == 1, "current=%v", tt.current)
	}
}

func TestDetectAnomalies_Details(t *testing.T) {
	baseline := &Baseline{Metrics: map[string]float64{"logins": 10}}
	got := DetectAnomalies(baseline, map[string]float64{"logins": 16}, AnomalyThreshold, t0)

	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "logins_Deviation", a.Type)
	assert.InDelta(t, 0.6, a.Severity, 1e-9)
	assert.Equal(t, t0, a.DetectedAt)
	assert.Equal(t, 16.0, a.Details["current_value"])
	assert.Equal(t, 10.0, a.Details["baseline_value"])
}

func TestDetectAnomalies_SkipsUncheckableMetrics(t *testing.T) {
	baseline := &Baseline{Metrics: map[string]float64{"zero": 0, "missing": 5}}
	current := map[string]float64{"zero": 100, "unknown": 1000}

	assert.Empty(t, DetectAnomalies(baseline, current, AnomalyThreshold, t0))
	assert.Nil(t, DetectAnomalies(nil, current, AnomalyThreshold, t0))
}

func TestAnalyze_BaselineDeviation(t *testing.T) {
	baseline := &Baseline{Metrics: map[string]float64{"a": 10, "b": 10, "c": 10}}
	current := map[string]float64{"a": 16, "b": 20, "c": 11}

	analysis := Analyze("user-1", baseline, current, time.Hour, AnomalyThreshold, t0)

	require.Len(t, analysis.Anomalies, 2)
	assert.InDelta(t, (0.6+1.0)/2, analysis.BaselineDeviation, 1e-9)
	assert.Equal(t, time.Hour, analysis.Window)
	assert.Equal(t, 11.0, analysis.Metrics["c"])
	assert.True(t, analysis.HasAnomalies())

	clean := Analyze("user-1", baseline, map[string]float64{"a": 10}, time.Hour, AnomalyThreshold, t0)
	assert.Equal(t, 0.0, clean.BaselineDeviation)
	assert.NotNil(t, clean.Anomalies)
	assert.False(t, clean.HasAnomalies())
}
