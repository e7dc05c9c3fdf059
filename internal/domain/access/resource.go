package access

import "strings"

// DefaultHighRiskKeywords mark resources that require step-up authentication.
var DefaultHighRiskKeywords = []string{"admin", "settings", "users", "financial", "sensitive"}

// Sensitivity classifies a target resource.
type Sensitivity int

const (
	SensitivityStandard Sensitivity = iota
	SensitivityHighRisk
)

func (s Sensitivity) String() string {
	if s == SensitivityHighRisk {
		return "high_risk"
	}
	return "standard"
}

// Classifier decides resource sensitivity by case-insensitive substring match
// against a keyword list.
type Classifier struct {
	keywords []string
}

// NewClassifier builds a classifier. An empty list falls back to the defaults.
func NewClassifier(keywords []string) Classifier {
	if len(keywords) == 0 {
		keywords = DefaultHighRiskKeywords
	}
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			normalized = append(normalized, k)
		}
	}
	return Classifier{keywords: normalized}
}

// Classify returns the sensitivity of resource.
func (c Classifier) Classify(resource string) Sensitivity {
	name := strings.ToLower(resource)
	keywords := c.keywords
	if keywords == nil {
		keywords = DefaultHighRiskKeywords
	}
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return SensitivityHighRisk
		}
	}
	return SensitivityStandard
}

// IsHighRisk is shorthand for Classify(resource) == SensitivityHighRisk.
func (c Classifier) IsHighRisk(resource string) bool {
	return c.Classify(resource) == SensitivityHighRisk
}
