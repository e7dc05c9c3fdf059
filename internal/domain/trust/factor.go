package trust

import "math"

// Factor names, in the order they appear on a TrustScore
const (
	FactorDevice     = "Device"
	FactorLocation   = "Location"
	FactorBehavioral = "Behavioral"
	FactorTime       = "Time"
	FactorThreat     = "Threat"
)

// FactorWeight pairs a factor name with its fixed aggregation weight.
type FactorWeight struct {
	Name   string
	Weight float64
}

// Weights is the fixed factor set. The weights sum to 1.0.
var Weights = []FactorWeight{
	{Name: FactorDevice, Weight: 0.25},
	{Name: FactorLocation, Weight: 0.20},
	{Name: FactorBehavioral, Weight: 0.30},
	{Name: FactorTime, Weight: 0.15},
	{Name: FactorThreat, Weight: 0.10},
}

// Factor is one weighted scoring dimension of a trust evaluation.
type Factor struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// WeightOf returns the fixed weight for a factor name, or 0 if the name is not
// part of the factor set.
func WeightOf(name string) float64 {
	for _, w := range Weights {
		if w.Name == name {
			return w.Weight
		}
	}
	return 0
}

// WeightSum returns the sum of all fixed factor weights.
func WeightSum() float64 {
	sum := 0.0
	for _, w := range Weights {
		sum += w.Weight
	}
	return sum
}

// NewFactor builds a factor with its fixed weight and a score clamped to [0,1].
func NewFactor(name string, score float64, description string) Factor {
	return Factor{
		Name:        name,
		Weight:      WeightOf(name),
		Score:       Clamp(score),
		Description: description,
	}
}

// Clamp bounds a score to [0,1]. NaN is treated as 0.
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(1, score))
}
