package zerotrust

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/compliance"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
)

// CheckComplianceStatus evaluates each framework for the tenant. A framework
// whose check fails counts as non-compliant.
func (s *service) CheckComplianceStatus(ctx context.Context, tenantID string) (*compliance.Status, error) {
	if tenantID == "" {
		return nil, errors.NewValidationError("MISSING_TENANT_ID", "tenant id is required")
	}

	results := make(map[compliance.Framework]bool, len(compliance.Frameworks))
	var issues []string

	for _, framework := range compliance.Frameworks {
		if s.compliance == nil {
			issues = append(issues, fmt.Sprintf("%s: no compliance checker configured", framework))
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
		ok, issue, err := s.compliance.CheckFramework(cctx, tenantID, framework)
		cancel()

		switch {
		case err != nil:
			s.degraded(collaboratorCompliance, err,
				zap.String("tenant_id", tenantID),
				zap.String("framework", string(framework)))
			issues = append(issues, fmt.Sprintf("%s: compliance check failed", framework))
		case !ok:
			if issue == "" {
				issue = "non-compliant"
			}
			issues = append(issues, fmt.Sprintf("%s: %s", framework, issue))
		}
		results[framework] = err == nil && ok
	}

	status := compliance.NewStatus(tenantID, results, issues, s.now())

	s.logTenantEvent(ctx, audit.EventComplianceChecked,
		fmt.Sprintf("compliance status checked: compliant=%t", status.IsCompliant),
		"", tenantID, map[string]interface{}{
			"is_compliant": status.IsCompliant,
			"issues":       len(status.Issues),
		})

	return &status, nil
}

// GetThreatIntelligence returns the threat reports for ip. An unreachable
// provider yields an empty list.
func (s *service) GetThreatIntelligence(ctx context.Context, ip string) ([]threat.Intelligence, error) {
	if ip == "" {
		return nil, errors.NewValidationError("MISSING_IP_ADDRESS", "ip address is required")
	}

	threats, _ := tryLookup(ctx, s, collaboratorThreatIntel, func(ctx context.Context) ([]threat.Intelligence, error) {
		return s.threats.GetThreatIntelligence(ctx, ip)
	}, zap.String("ip_address", ip))
	if threats == nil {
		threats = []threat.Intelligence{}
	}
	return threats, nil
}
