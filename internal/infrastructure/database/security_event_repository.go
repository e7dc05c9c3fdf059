package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
)

// SecurityEventRepository is the Postgres audit sink.
type SecurityEventRepository struct {
	db *pgxpool.Pool
}

func NewSecurityEventRepository(db *pgxpool.Pool) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

func (r *SecurityEventRepository) LogSecurityEvent(ctx context.Context, event *audit.SecurityEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal event details: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO security_events (id, event_type, description, user_id, tenant_id, details, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		event.ID, string(event.Type), event.Description, event.UserID, event.TenantID, string(details), event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert security event: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent events, newest first.
func (r *SecurityEventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*audit.SecurityEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_type, description, COALESCE(user_id, ''), COALESCE(tenant_id, ''), details, occurred_at
		FROM security_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer rows.Close()

	var events []*audit.SecurityEvent
	for rows.Next() {
		var (
			e         audit.SecurityEvent
			eventType string
			details   []byte
		)
		if err := rows.Scan(&e.ID, &eventType, &e.Description, &e.UserID, &e.TenantID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan security event: %w", err)
		}
		e.Type = audit.EventType(eventType)
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode event details: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
