package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkStarted         EventType = "work_started"
	EventWorkStopped         EventType = "work_stopped"
	EventTimeRegistered      EventType = "time_registered"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketClosed        EventType = "ticket_closed"
	EventTicketScheduled     EventType = "ticket_scheduled"
	EventTicketUnscheduled   EventType = "ticket_unscheduled"
	EventAutoAssignCompleted EventType = "auto_assign_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	WorkerID  string    `json:"worker_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// WorkSessionPayload accompanies work_started, work_stopped and time_registered.
type WorkSessionPayload struct {
	SessionID       string `json:"session_id"`
	IsPhoneCall     bool   `json:"is_phone_call"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosedAt time.Time `json:"closed_at"`
	ClosedBy string    `json:"closed_by"`
}

// TicketScheduledPayload accompanies ticket_scheduled and ticket_unscheduled.
type TicketScheduledPayload struct {
	ScheduledDate  string  `json:"scheduled_date"`
	IsAutoAssigned bool    `json:"is_auto_assigned"`
	AssignedBy     *string `json:"assigned_by,omitempty"`
}

// AutoAssignCompletedPayload summarises one scheduler run.
type AutoAssignCompletedPayload struct {
	WeekStart string   `json:"week_start"`
	Assigned  int      `json:"assigned"`
	TicketIDs []string `json:"ticket_ids"`
}
