package threat

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity is an ordered threat severity: Low < Medium < High < Critical.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"Low", "Medium", "High", "Critical"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// ParseSeverity accepts severity names case-insensitively.
func ParseSeverity(v string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(v, name) {
			return Severity(i), nil
		}
	}
	return SeverityLow, fmt.Errorf("unknown threat severity %q", v)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Intelligence is one threat report associated with an IP address.
type Intelligence struct {
	Severity    Severity  `json:"severity"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ip_address"`
	ReportedAt  time.Time `json:"reported_at,omitempty"`
}

// MaxSeverity returns the highest severity in threats, and false if there are none.
func MaxSeverity(threats []Intelligence) (Severity, bool) {
	if len(threats) == 0 {
		return SeverityLow, false
	}
	highest := threats[0].Severity
	for _, t := range threats[1:] {
		if t.Severity > highest {
			highest = t.Severity
		}
	}
	return highest, true
}

// AnyAtLeast reports whether any threat is at least min severity.
func AnyAtLeast(threats []Intelligence, min Severity) bool {
	sev, ok := MaxSeverity(threats)
	return ok && sev.AtLeast(min)
}

// Risk is a security risk identified for a user.
type Risk struct {
	ID          string                 `json:"risk_id"`
	UserID      string                 `json:"user_id"`
	Type        string                 `json:"risk_type"`
	Severity    Severity               `json:"severity"`
	Description string                 `json:"description"`
	Mitigation  string                 `json:"mitigation"`
	DetectedAt  time.Time              `json:"detected_at"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// RiskTypeBehaviorAnomaly marks risks derived from behavioral anomalies.
const RiskTypeBehaviorAnomaly = "BEHAVIOR_ANOMALY"

// SeverityForDeviation grades a relative behavioral deviation.
func SeverityForDeviation(ratio float64) Severity {
	switch {
	case ratio >= 2:
		return SeverityHigh
	case ratio >= 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SortRisks orders risks by severity, most severe first. Ties keep detection order.
func SortRisks(risks []Risk) {
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Severity > risks[j].Severity
	})
}
