package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationRepository records the locations each user has been seen at.
type LocationRepository struct {
	db *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{db: db}
}

// RecordLocation marks location as seen for the user at seenAt.
func (r *LocationRepository) RecordLocation(ctx context.Context, userID, location string, seenAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_locations (user_id, location, first_seen, last_seen)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id, location)
		DO UPDATE SET last_seen = GREATEST(user_locations.last_seen, EXCLUDED.last_seen),
		              seen_count = user_locations.seen_count + 1`,
		userID, location, seenAt)
	if err != nil {
		return fmt.Errorf("failed to record location: %w", err)
	}
	return nil
}

func (r *LocationRepository) IsKnownLocation(ctx context.Context, location, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_locations WHERE user_id = $1 AND location = $2)`,
		userID, location).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check location history: %w", err)
	}
	return exists, nil
}
