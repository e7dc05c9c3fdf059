package compliance

import (
	"time"
)

// Framework is a regulatory or certification framework checked per tenant.
type Framework string

const (
	FrameworkGDPR     Framework = "GDPR"
	FrameworkSOC2     Framework = "SOC2"
	FrameworkISO27001 Framework = "ISO27001"
)

// Frameworks lists every framework evaluated by a compliance check.
var Frameworks = []Framework{FrameworkGDPR, FrameworkSOC2, FrameworkISO27001}

// Status is the compliance posture of a tenant.
type Status struct {
	TenantID    string             `json:"tenant_id"`
	IsCompliant bool               `json:"is_compliant"`
	Frameworks  map[Framework]bool `json:"frameworks"`
	Issues      []string           `json:"issues"`
	CheckedAt   time.Time          `json:"checked_at"`
}

// NewStatus summarizes per-framework results. The tenant is compliant only if
// every framework in Frameworks reports compliant; absent results count as failures.
func NewStatus(tenantID string, results map[Framework]bool, issues []string, now time.Time) Status {
	frameworks := make(map[Framework]bool, len(Frameworks))
	overall := true
	for _, f := range Frameworks {
		ok := results[f]
		frameworks[f] = ok
		if !ok {
			overall = false
		}
	}

	if issues == nil {
		issues = []string{}
	}

	return Status{
		TenantID:    tenantID,
		IsCompliant: overall,
		Frameworks:  frameworks,
		Issues:      issues,
		CheckedAt:   now,
	}
}
