package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// AssignRequest payload for manual scheduling.
type AssignRequest struct {
	TicketID string `json:"ticket_id"`
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
}

// AutoAssignRequest payload.
type AutoAssignRequest struct {
	WeekStart   string   `json:"week_start"`
	CategoryIDs []string `json:"category_ids"`
}

// AssignmentResponse represents a scheduled ticket.
type AssignmentResponse struct {
	ID             string                 `json:"id"`
	TicketID       string                 `json:"ticket_id"`
	WorkerID       string                 `json:"worker_id"`
	Date           string                 `json:"date"`
	AssignedAt     time.Time              `json:"assigned_at"`
	AssignedBy     *string                `json:"assigned_by"`
	IsAutoAssigned bool                   `json:"is_auto_assigned"`
	Priority       *domain.TicketPriority `json:"priority"`
}

// DayPredictionResponse is one forecast day.
type DayPredictionResponse struct {
	Date             string  `json:"date"`
	PredictedCount   int     `json:"predicted_count"`
	AvailableMinutes int     `json:"available_minutes"`
	Efficiency       float64 `json:"efficiency"`
}

// DayWorkloadResponse is one report day.
type DayWorkloadResponse struct {
	Date           string               `json:"date"`
	PlannedMinutes int                  `json:"planned_minutes"`
	SpentMinutes   int                  `json:"spent_minutes"`
	Ratio          float64              `json:"ratio"`
	Level          domain.WorkloadLevel `json:"level"`
}

// WorkloadResponse summarises a week.
type WorkloadResponse struct {
	WorkerID       string                `json:"worker_id"`
	WeekStart      string                `json:"week_start"`
	PlannedMinutes int                   `json:"planned_minutes"`
	SpentMinutes   int                   `json:"spent_minutes"`
	Ratio          float64               `json:"ratio"`
	Level          domain.WorkloadLevel  `json:"level"`
	Days           []DayWorkloadResponse `json:"days"`
}

// EfficiencyResponse reports a worker's category efficiency.
type EfficiencyResponse struct {
	WorkerID         string  `json:"worker_id"`
	CategoryID       string  `json:"category_id"`
	Efficiency       float64 `json:"efficiency"`
	DefaultMinutes   int     `json:"default_minutes"`
	EstimatedMinutes int     `json:"estimated_minutes"`
}

// AssignmentFromDomain maps an assignment.
func AssignmentFromDomain(a *domain.ScheduleAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             a.ID,
		TicketID:       a.TicketID,
		WorkerID:       a.WorkerID,
		Date:           a.ScheduledDate.Format(DateLayout),
		AssignedAt:     a.AssignedAt,
		AssignedBy:     a.AssignedBy,
		IsAutoAssigned: a.IsAutoAssigned,
		Priority:       a.Priority,
	}
}

// AssignmentsFromDomain maps a list, never returning nil.
func AssignmentsFromDomain(list []domain.ScheduleAssignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(list))
	for i := range list {
		out = append(out, AssignmentFromDomain(&list[i]))
	}
	return out
}

// PredictionsFromService maps forecast days.
func PredictionsFromService(days []service.DayPrediction) []DayPredictionResponse {
	out := make([]DayPredictionResponse, 0, len(days))
	for _, d := range days {
		out = append(out, DayPredictionResponse{
			Date:             d.Date.Format(DateLayout),
			PredictedCount:   d.PredictedCount,
			AvailableMinutes: d.AvailableMinutes,
			Efficiency:       d.Efficiency,
		})
	}
	return out
}

// WorkloadFromService maps a workload report.
func WorkloadFromService(r *service.WorkloadReport) WorkloadResponse {
	days := make([]DayWorkloadResponse, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, DayWorkloadResponse{
			Date:           d.Date.Format(DateLayout),
			PlannedMinutes: d.PlannedMinutes,
			SpentMinutes:   d.SpentMinutes,
			Ratio:          d.Ratio,
			Level:          d.Level,
		})
	}
	return WorkloadResponse{
		WorkerID:       r.WorkerID,
		WeekStart:      r.WeekStart.Format(DateLayout),
		PlannedMinutes: r.PlannedMinutes,
		SpentMinutes:   r.SpentMinutes,
		Ratio:          r.Ratio,
		Level:          r.Level,
		Days:           days,
	}
}
