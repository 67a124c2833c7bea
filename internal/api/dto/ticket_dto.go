package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// StopWorkRequest payload. DurationMinutes overrides the measured interval.
type StopWorkRequest struct {
	WorkerID        string `json:"worker_id"`
	DurationMinutes *int   `json:"duration_minutes"`
}

// WorkRequest payload for starting work.
type WorkRequest struct {
	WorkerID string `json:"worker_id"`
}

// TimeEntryRequest payload for manual time registration.
type TimeEntryRequest struct {
	WorkerID    string `json:"worker_id"`
	Minutes     int    `json:"minutes"`
	IsPhoneCall bool   `json:"is_phone_call"`
}

// StatusChangeRequest payload.
type StatusChangeRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	WorkerID string     `json:"worker_id"`
	ClosedAt *time.Time `json:"closed_at"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	CategoryID   string                `json:"category_id"`
	CategoryName string                `json:"category_name"`
	ClientID     string                `json:"client_id"`
	ClientName   string                `json:"client_name"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    *time.Time            `json:"updated_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
	ClosedBy     *string               `json:"closed_by"`
}

// WorkSessionResponse represents one work interval.
type WorkSessionResponse struct {
	ID              string     `json:"id"`
	TicketID        string     `json:"ticket_id"`
	WorkerID        string     `json:"worker_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	IsPhoneCall     bool       `json:"is_phone_call"`
	Active          bool       `json:"active"`
}

// TicketFromDomain maps a ticket.
func TicketFromDomain(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		Title:        t.Title,
		CategoryID:   t.Category.ID,
		CategoryName: t.Category.Name,
		ClientID:     t.Client.ID,
		ClientName:   t.Client.Name,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		ClosedAt:     t.ClosedAt,
		ClosedBy:     t.ClosedBy,
	}
}

// SessionFromDomain maps a work session.
func SessionFromDomain(s *domain.WorkSession) WorkSessionResponse {
	return WorkSessionResponse{
		ID:              s.ID,
		TicketID:        s.TicketID,
		WorkerID:        s.WorkerID,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		DurationMinutes: s.DurationMinutes,
		IsPhoneCall:     s.IsPhoneCall,
		Active:          s.Active(),
	}
}
