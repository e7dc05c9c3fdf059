package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/telemetry"
)

// DefaultHistoryLookback bounds the history a baseline is built from.
const DefaultHistoryLookback = 30 * 24 * time.Hour

// BehaviorRepository stores raw behavior metric observations.
type BehaviorRepository struct {
	db       *pgxpool.Pool
	lookback time.Duration
}

func NewBehaviorRepository(db *pgxpool.Pool, lookback time.Duration) *BehaviorRepository {
	if lookback <= 0 {
		lookback = DefaultHistoryLookback
	}
	return &BehaviorRepository{db: db, lookback: lookback}
}

// RecordMetric stores one observation.
func (r *BehaviorRepository) RecordMetric(ctx context.Context, userID, metric string, value float64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO behavior_metrics (user_id, metric, value, recorded_at) VALUES ($1, $2, $3, $4)`,
		userID, metric, value, at)
	if err != nil {
		return fmt.Errorf("failed to record behavior metric: %w", err)
	}
	return nil
}

// GetHistoricalMetrics returns one sample per hour of the lookback period,
// each holding the hourly mean of every metric observed in that hour.
func (r *BehaviorRepository) GetHistoricalMetrics(ctx context.Context, userID string) ([]behavior.MetricSample, error) {
	ctx, span := telemetry.StartDatabaseSpan(ctx, "select", "behavior_metrics")
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('hour', recorded_at) AS bucket, metric, AVG(value)
		FROM behavior_metrics
		WHERE user_id = $1 AND recorded_at >= NOW() - ($2 * INTERVAL '1 second')
		GROUP BY bucket, metric
		ORDER BY bucket, metric`,
		userID, r.lookback.Seconds())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to query behavior history: %w", err)
	}
	defer rows.Close()

	var samples []behavior.MetricSample
	for rows.Next() {
		var (
			bucket time.Time
			metric string
			value  float64
		)
		if err := rows.Scan(&bucket, &metric, &value); err != nil {
			return nil, fmt.Errorf("failed to scan behavior history: %w", err)
		}

		if n := len(samples); n == 0 || !samples[n-1].Timestamp.Equal(bucket) {
			samples = append(samples, behavior.MetricSample{Timestamp: bucket, Values: map[string]float64{}})
		}
		samples[len(samples)-1].Values[metric] = value
	}
	return samples, rows.Err()
}

// GetCurrentMetrics returns the mean of each metric over the trailing window.
func (r *BehaviorRepository) GetCurrentMetrics(ctx context.Context, userID string, window time.Duration) (map[string]float64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT metric, AVG(value)
		FROM behavior_metrics
		WHERE user_id = $1 AND recorded_at >= NOW() - ($2 * INTERVAL '1 second')
		GROUP BY metric`,
		userID, window.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query current behavior: %w", err)
	}
	defer rows.Close()

	current := make(map[string]float64)
	for rows.Next() {
		var (
			metric string
			value  float64
		)
		if err := rows.Scan(&metric, &value); err != nil {
			return nil, fmt.Errorf("failed to scan current behavior: %w", err)
		}
		current[metric] = value
	}
	return current, rows.Err()
}
