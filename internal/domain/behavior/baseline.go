package behavior

import (
	"sort"
	"time"
)

// MetricSample is one observation of a user's behavioral metrics.
type MetricSample struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Baseline holds the expected value of each behavioral metric for one user.
type Baseline struct {
	UserID      string             `json:"user_id"`
	Metrics     map[string]float64 `json:"metrics"`
	SampleCount int                `json:"sample_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// BuildBaseline summarizes historical samples into per-metric means. Metrics
// are averaged over the samples that report them.
func BuildBaseline(userID string, history []MetricSample, now time.Time) *Baseline {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range history {
		for name, v := range s.Values {
			sums[name] += v
			counts[name]++
		}
	}

	metrics := make(map[string]float64, len(sums))
	for name, sum := range sums {
		metrics[name] = sum / float64(counts[name])
	}

	return &Baseline{
		UserID:      userID,
		Metrics:     metrics,
		SampleCount: len(history),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Refreshed rebuilds the metric summary from newer history, keeping the
// original creation time.
func (b *Baseline) Refreshed(history []MetricSample, now time.Time) *Baseline {
	next := BuildBaseline(b.UserID, history, now)
	next.CreatedAt = b.CreatedAt
	return next
}

// IsStale reports whether the baseline is older than maxAge. A non-positive
// maxAge disables expiry.
func (b *Baseline) IsStale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(b.UpdatedAt) > maxAge
}

// MetricNames returns the baseline metric names in sorted order.
func (b *Baseline) MetricNames() []string {
	names := make([]string, 0, len(b.Metrics))
	for name := range b.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
