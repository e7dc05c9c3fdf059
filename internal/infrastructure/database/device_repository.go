package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/telemetry"
)

// DeviceRepository is the Postgres device registry.
type DeviceRepository struct {
	db *pgxpool.Pool
}

func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// RegisterDevice binds a device to a user. Re-registering updates the
// fingerprint and keeps the original registration time.
func (r *DeviceRepository) RegisterDevice(ctx context.Context, deviceID, userID, fingerprintHash string) error {
	ctx, span := telemetry.StartDatabaseSpan(ctx, "insert", "devices")
	defer span.End()

	_, err := r.db.Exec(ctx, `
		INSERT INTO devices (device_id, user_id, fingerprint_hash)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (device_id, user_id)
		DO UPDATE SET fingerprint_hash = COALESCE(EXCLUDED.fingerprint_hash, devices.fingerprint_hash)`,
		deviceID, userID, fingerprintHash)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// SetDeviceHealth records the outcome of a device health check.
func (r *DeviceRepository) SetDeviceHealth(ctx context.Context, deviceID string, healthy bool, checkedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE devices SET healthy = $2, last_health_check = $3 WHERE device_id = $1`,
		deviceID, healthy, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to update device health: %w", err)
	}
	return nil
}

func (r *DeviceRepository) IsDeviceRegistered(ctx context.Context, deviceID, userID string) (bool, error) {
	ctx, span := telemetry.StartDatabaseSpan(ctx, "select", "devices")
	defer span.End()

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM devices WHERE device_id = $1 AND user_id = $2)`,
		deviceID, userID).Scan(&exists)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, fmt.Errorf("failed to check device registration: %w", err)
	}
	return exists, nil
}

// CheckDeviceHealth returns the most recent health result. Unknown devices
// are unhealthy.
func (r *DeviceRepository) CheckDeviceHealth(ctx context.Context, deviceID string) (bool, error) {
	var healthy bool
	err := r.db.QueryRow(ctx, `
		SELECT healthy FROM devices
		WHERE device_id = $1
		ORDER BY last_health_check DESC NULLS LAST
		LIMIT 1`, deviceID).Scan(&healthy)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check device health: %w", err)
	}
	return healthy, nil
}

func (r *DeviceRepository) IsKnownFingerprint(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM devices WHERE fingerprint_hash = $1)`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up fingerprint: %w", err)
	}
	return exists, nil
}

// SimilarityScore is 1 for a registered fingerprint and 0 otherwise. Hashes
// carry no partial similarity.
func (r *DeviceRepository) SimilarityScore(ctx context.Context, hash string) (float64, error) {
	known, err := r.IsKnownFingerprint(ctx, hash)
	if err != nil {
		return 0, err
	}
	if known {
		return 1, nil
	}
	return 0, nil
}
