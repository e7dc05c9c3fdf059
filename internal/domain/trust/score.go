package trust

import (
	"fmt"
	"strings"
	"time"
)

// ScoreValidity is how long a computed TrustScore may be relied upon.
const ScoreValidity = 15 * time.Minute

// Score is the aggregate result of one trust evaluation. It is never mutated
// after creation.
type Score struct {
	Score        float64       `json:"score"`
	Level        Level         `json:"level"`
	Factors      []Factor      `json:"factors"`
	CalculatedAt time.Time     `json:"calculated_at"`
	ValidFor     time.Duration `json:"valid_for"`
	Reason       string        `json:"reason"`
}

// Aggregate combines factor scores into a composite score using each factor's
// weight. Factors are reported in the order given.
func Aggregate(factors []Factor, calculatedAt time.Time) Score {
	composite := 0.0
	for _, f := range factors {
		composite += f.Weight * Clamp(f.Score)
	}
	composite = Clamp(composite)

	ordered := make([]Factor, len(factors))
	copy(ordered, factors)

	level := LevelForScore(composite)
	return Score{
		Score:        composite,
		Level:        level,
		Factors:      ordered,
		CalculatedAt: calculatedAt,
		ValidFor:     ScoreValidity,
		Reason:       describe(composite, level, ordered),
	}
}

// ExpiresAt returns the instant after which the score is stale.
func (s Score) ExpiresAt() time.Time {
	return s.CalculatedAt.Add(s.ValidFor)
}

// IsExpired reports whether the score is past its validity window at now.
func (s Score) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt())
}

// Factor returns the named factor, if present.
func (s Score) Factor(name string) (Factor, bool) {
	for _, f := range s.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return Factor{}, false
}

// WithReasonNote returns a copy of s with note appended to the reason.
func (s Score) WithReasonNote(note string) Score {
	out := s
	out.Factors = append([]Factor(nil), s.Factors...)
	out.Reason = s.Reason + "; " + note
	return out
}

func describe(composite float64, level Level, factors []Factor) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, fmt.Sprintf("%s=%.2f", f.Name, f.Score))
	}
	return fmt.Sprintf("trust score %.3f (%s) from %s", composite, level, strings.Join(parts, ", "))
}
