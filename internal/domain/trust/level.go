package trust

import "fmt"

// Level is the discretized trust bucket derived from a composite score.
// Levels are totally ordered: VeryLow < Low < Medium < High < VeryHigh.
type Level int

const (
	LevelVeryLow Level = iota
	LevelLow
	LevelMedium
	LevelHigh
	LevelVeryHigh
)

// Level thresholds, inclusive lower bounds
const (
	ThresholdVeryHigh = 0.8
	ThresholdHigh     = 0.6
	ThresholdMedium   = 0.4
	ThresholdLow      = 0.2
)

// LevelForScore maps a composite score onto its trust level.
func LevelForScore(score float64) Level {
	switch {
	case score >= ThresholdVeryHigh:
		return LevelVeryHigh
	case score >= ThresholdHigh:
		return LevelHigh
	case score >= ThresholdMedium:
		return LevelMedium
	case score >= ThresholdLow:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

func (l Level) String() string {
	switch l {
	case LevelVeryLow:
		return "VeryLow"
	case LevelLow:
		return "Low"
	case LevelMedium:
		return "Medium"
	case LevelHigh:
		return "High"
	case LevelVeryHigh:
		return "VeryHigh"
	default:
		return "Unknown"
	}
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, error) {
	for l := LevelVeryLow; l <= LevelVeryHigh; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return LevelVeryLow, fmt.Errorf("unknown trust level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
