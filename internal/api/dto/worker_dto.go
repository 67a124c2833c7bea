package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WorkerResponse hides credentials.
type WorkerResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        domain.WorkerRole `json:"role"`
	CategoryIDs []string          `json:"category_ids"`
}

// SettingsRequest payload.
type SettingsRequest struct {
	Enabled              bool `json:"enabled"`
	ConsiderEfficiency   bool `json:"consider_efficiency"`
	ConsiderAvailability bool `json:"consider_availability"`
	MaxTicketsPerWorker  int  `json:"max_tickets_per_worker"`
}

// SettingsResponse mirrors the stored settings.
type SettingsResponse struct {
	ManagerID            string     `json:"manager_id"`
	Enabled              bool       `json:"enabled"`
	ConsiderEfficiency   bool       `json:"consider_efficiency"`
	ConsiderAvailability bool       `json:"consider_availability"`
	MaxTicketsPerWorker  int        `json:"max_tickets_per_worker"`
	LastRunAt            *time.Time `json:"last_run_at"`
	TicketsAssigned      int        `json:"tickets_assigned"`
}

// RunRequest payload for a manager-triggered run.
type RunRequest struct {
	WeekStart string   `json:"week_start"`
	WorkerIDs []string `json:"worker_ids"`
}

// RunResponse reports the run.
type RunResponse struct {
	WeekStart string                          `json:"week_start"`
	Skipped   bool                            `json:"skipped"`
	Total     int                             `json:"total"`
	Busy      []string                        `json:"busy"`
	Failed    map[string]string               `json:"failed"`
	Assigned  map[string][]AssignmentResponse `json:"assigned"`
}

// WorkerFromDomain maps a worker.
func WorkerFromDomain(w *domain.Worker) WorkerResponse {
	categories := w.CategoryIDs
	if categories == nil {
		categories = []string{}
	}
	return WorkerResponse{ID: w.ID, Name: w.Name, Email: w.Email, Role: w.Role, CategoryIDs: categories}
}

// SettingsFromDomain maps settings.
func SettingsFromDomain(s *domain.AutoAssignmentSettings) SettingsResponse {
	return SettingsResponse{
		ManagerID:            s.ManagerID,
		Enabled:              s.Enabled,
		ConsiderEfficiency:   s.ConsiderEfficiency,
		ConsiderAvailability: s.ConsiderAvailability,
		MaxTicketsPerWorker:  s.MaxTicketsPerWorker,
		LastRunAt:            s.LastRunAt,
		TicketsAssigned:      s.TicketsAssigned,
	}
}

// RunFromService maps a run summary.
func RunFromService(r *service.RunSummary) RunResponse {
	assigned := make(map[string][]AssignmentResponse, len(r.Assigned))
	for workerID, list := range r.Assigned {
		assigned[workerID] = AssignmentsFromDomain(list)
	}
	busy := r.Busy
	if busy == nil {
		busy = []string{}
	}
	failed := make(map[string]string, len(r.Failed))
	for workerID, err := range r.Failed {
		if de := apperrors.ToDomainError(err); de != nil {
			failed[workerID] = de.Code
		}
	}
	return RunResponse{
		WeekStart: r.WeekStart.Format(DateLayout),
		Skipped:   r.Skipped,
		Total:     r.Total,
		Busy:      busy,
		Failed:    failed,
		Assigned:  assigned,
	}
}
