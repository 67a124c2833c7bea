package domain

import "math"

const (
	// MinEfficiency floors the divisor of time estimates.
	MinEfficiency = 0.1
	// NeutralEfficiencyValue stands in for unknown efficiency.
	NeutralEfficiencyValue = 1.0
)

// EstimatedMinutes scales a default resolution time by a worker's efficiency.
func EstimatedMinutes(defaultMinutes int, efficiency float64) int {
	return EstimateFromAverage(float64(defaultMinutes), efficiency)
}

// EstimateFromAverage is EstimatedMinutes for a fractional default.
func EstimateFromAverage(defaultMinutes float64, efficiency float64) int {
	estimate := int(math.Round(defaultMinutes / math.Max(efficiency, MinEfficiency)))
	if estimate < 1 {
		return 1
	}
	return estimate
}

// NeutralEfficiency substitutes 1.0 for an unknown (non-positive) efficiency.
func NeutralEfficiency(efficiency float64) float64 {
	if efficiency <= 0 {
		return NeutralEfficiencyValue
	}
	return efficiency
}

// RoundRatio rounds to two decimals.
func RoundRatio(v float64) float64 {
	return math.Round(v*100) / 100
}
