package domain

import "time"

// AutoAssignmentSettings is the per-manager auto-assignment configuration.
type AutoAssignmentSettings struct {
	ManagerID            string
	Enabled              bool
	ConsiderEfficiency   bool
	ConsiderAvailability bool
	MaxTicketsPerWorker  int
	LastRunAt            *time.Time
	TicketsAssigned      int
	UpdatedAt            time.Time
}

// DefaultAutoAssignmentSettings returns the settings used before a manager saves any.
func DefaultAutoAssignmentSettings(managerID string) AutoAssignmentSettings {
	return AutoAssignmentSettings{
		ManagerID:            managerID,
		Enabled:              false,
		ConsiderEfficiency:   true,
		ConsiderAvailability: true,
		MaxTicketsPerWorker:  10,
	}
}
