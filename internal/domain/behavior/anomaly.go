package behavior

import (
	"fmt"
	"math"
	"time"
)

// AnomalyThreshold is the relative deviation above which a metric is anomalous.
const AnomalyThreshold = 0.5

// Anomaly is a statistically significant deviation of one metric.
type Anomaly struct {
	Type        string                 `json:"anomaly_type"`
	Severity    float64                `json:"severity"`
	Description string                 `json:"description"`
	DetectedAt  time.Time              `json:"detected_at"`
	Details     map[string]interface{} `json:"details"`
}

// Analysis compares a user's current metrics to their baseline.
type Analysis struct {
	UserID            string             `json:"user_id"`
	AnalyzedAt        time.Time          `json:"analyzed_at"`
	Window            time.Duration      `json:"window"`
	Metrics           map[string]float64 `json:"metrics"`
	Anomalies         []Anomaly          `json:"anomalies"`
	BaselineDeviation float64            `json:"baseline_deviation"`
}

// HasAnomalies reports whether any anomaly was found.
func (a Analysis) HasAnomalies() bool {
	return len(a.Anomalies) > 0
}

// DetectAnomalies returns one anomaly for every metric whose relative deviation
// |current-baseline|/baseline exceeds threshold. Metrics with a zero baseline,
// or missing from either side, cannot be checked and are skipped.
func DetectAnomalies(baseline *Baseline, current map[string]float64, threshold float64, now time.Time) []Anomaly {
	if baseline == nil {
		return nil
	}

	var anomalies []Anomaly
	for _, name := range baseline.MetricNames() {
		expected := baseline.Metrics[name]
		value, ok := current[name]
		if !ok || expected == 0 || math.IsNaN(expected) || math.IsNaN(value) {
			continue
		}

		ratio := math.Abs(value-expected) / math.Abs(expected)
		if ratio <= threshold {
			continue
		}

		anomalies = append(anomalies, Anomaly{
			Type:     name + "_Deviation",
			Severity: ratio,
			Description: fmt.Sprintf("%s deviates %.0f%% from baseline (current %.2f, baseline %.2f)",
				name, ratio*100, value, expected),
			DetectedAt: now,
			Details: map[string]interface{}{
				"current_value":   value,
				"baseline_value":  expected,
				"deviation_ratio": ratio,
			},
		})
	}
	return anomalies
}

// Analyze builds an Analysis. BaselineDeviation is the mean anomaly severity,
// or 0 when there are none.
func Analyze(userID string, baseline *Baseline, current map[string]float64, window time.Duration, threshold float64, now time.Time) Analysis {
	anomalies := DetectAnomalies(baseline, current, threshold, now)

	deviation := 0.0
	if len(anomalies) > 0 {
		for _, a := range anomalies {
			deviation += a.Severity
		}
		deviation /= float64(len(anomalies))
	}

	metrics := make(map[string]float64, len(current))
	for k, v := range current {
		metrics[k] = v
	}

	if anomalies == nil {
		anomalies = []Anomaly{}
	}

	return Analysis{
		UserID:            userID,
		AnalyzedAt:        now,
		Window:            window,
		Metrics:           metrics,
		Anomalies:         anomalies,
		BaselineDeviation: deviation,
	}
}
