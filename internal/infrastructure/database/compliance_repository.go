package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/compliance"
)

// ComplianceRepository holds per-tenant framework attestations.
type ComplianceRepository struct {
	db *pgxpool.Pool
}

func NewComplianceRepository(db *pgxpool.Pool) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

// SetControl records the attested state of one framework for a tenant.
func (r *ComplianceRepository) SetControl(ctx context.Context, tenantID string, framework compliance.Framework, compliant bool, issue string, checkedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tenant_compliance_controls (tenant_id, framework, compliant, issue, checked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, framework)
		DO UPDATE SET compliant = EXCLUDED.compliant, issue = EXCLUDED.issue, checked_at = EXCLUDED.checked_at`,
		tenantID, string(framework), compliant, issue, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to store compliance control: %w", err)
	}
	return nil
}

// CheckFramework reports the recorded state. A tenant with no record for the
// framework is non-compliant.
func (r *ComplianceRepository) CheckFramework(ctx context.Context, tenantID string, framework compliance.Framework) (bool, string, error) {
	var (
		compliant bool
		issue     string
	)
	err := r.db.QueryRow(ctx,
		`SELECT compliant, issue FROM tenant_compliance_controls WHERE tenant_id = $1 AND framework = $2`,
		tenantID, string(framework)).Scan(&compliant, &issue)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, "no attestation on record", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to check compliance control: %w", err)
	}
	return compliant, issue, nil
}
