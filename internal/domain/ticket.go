package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusAwaitingResponse TicketStatus = "awaiting_response"
	TicketStatusAwaitingCustomer TicketStatus = "awaiting_customer"
	TicketStatusInProgress       TicketStatus = "in_progress"
	TicketStatusClosed           TicketStatus = "closed"
)

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusAwaitingResponse, TicketStatusAwaitingCustomer, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// OpenTicketStatuses lists every non-terminal status.
func OpenTicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusAwaitingResponse, TicketStatusAwaitingCustomer, TicketStatusInProgress}
}

// TicketPriority enumerates urgency labels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// CategorySnapshot is the copy of a category taken when the ticket was
// created or last updated. Later edits to the category do not reach it.
type CategorySnapshot struct {
	ID             string
	Name           string
	DefaultMinutes int
}

// ClientSnapshot is the copy of the requesting client.
type ClientSnapshot struct {
	ID   string
	Name string
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID        string
	Title     string
	Category  CategorySnapshot
	Client    ClientSnapshot
	Priority  TicketPriority
	Status    TicketStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
	ClosedAt  *time.Time
	ClosedBy  *string
}

// IsClosed reports whether the ticket reached the terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// Touch records a modification at the given time.
func (t *Ticket) Touch(at time.Time) {
	t.UpdatedAt = &at
}
