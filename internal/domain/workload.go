package domain

// WorkloadLevel labels how loaded a worker is.
type WorkloadLevel string

const (
	WorkloadLow      WorkloadLevel = "low"
	WorkloadNormal   WorkloadLevel = "normal"
	WorkloadHigh     WorkloadLevel = "high"
	WorkloadCritical WorkloadLevel = "critical"
)

// ClassifyWorkload maps a spent/planned ratio to a workload level.
func ClassifyWorkload(ratio float64) WorkloadLevel {
	switch {
	case ratio >= 1.0:
		return WorkloadCritical
	case ratio >= 0.8:
		return WorkloadHigh
	case ratio >= 0.5:
		return WorkloadNormal
	default:
		return WorkloadLow
	}
}

// WorkloadRatio is spent/planned, zero when nothing is planned.
func WorkloadRatio(spentMinutes, plannedMinutes int) float64 {
	if plannedMinutes <= 0 {
		return 0
	}
	return float64(spentMinutes) / float64(plannedMinutes)
}
