// Package testutil builds fixtures and fully wired in-memory services for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Monday is a fixed week start used across tests.
var Monday = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// Ticket options
type TicketOption func(*domain.Ticket)

func WithStatus(s domain.TicketStatus) TicketOption {
	return func(t *domain.Ticket) {
		t.Status = s
	}
}

func WithPriority(p domain.TicketPriority) TicketOption {
	return func(t *domain.Ticket) {
		t.Priority = p
	}
}

func WithCreatedAt(at time.Time) TicketOption {
	return func(t *domain.Ticket) {
		t.CreatedAt = at
	}
}

func WithClosedAt(at time.Time, by string) TicketOption {
	return func(t *domain.Ticket) {
		t.Status = domain.TicketStatusClosed
		t.ClosedAt = &at
		t.ClosedBy = &by
	}
}

func NewTestTicket(id string, category domain.Category, opts ...TicketOption) domain.Ticket {
	t := domain.Ticket{
		ID:        id,
		Title:     "ticket " + id,
		Category:  category.Snapshot(),
		Client:    domain.ClientSnapshot{ID: "client-1", Name: "Acme"},
		Priority:  domain.TicketPriorityNormal,
		Status:    domain.TicketStatusAwaitingResponse,
		CreatedAt: Monday.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func NewTestCategory(id string, defaultMinutes int) domain.Category {
	return domain.Category{ID: id, Name: "category " + id, DefaultMinutes: defaultMinutes, Active: true}
}

// Worker options
type WorkerOption func(*domain.Worker)

func WithRole(r domain.WorkerRole) WorkerOption {
	return func(w *domain.Worker) {
		w.Role = r
	}
}

func WithCategories(ids ...string) WorkerOption {
	return func(w *domain.Worker) {
		w.CategoryIDs = ids
	}
}

func WithPasswordHash(hash string) WorkerOption {
	return func(w *domain.Worker) {
		w.PasswordHash = hash
	}
}

func Inactive() WorkerOption {
	return func(w *domain.Worker) {
		w.Active = false
	}
}

func NewTestWorker(id string, opts ...WorkerOption) domain.Worker {
	w := domain.Worker{
		ID:        id,
		Name:      "worker " + id,
		Email:     id + "@example.com",
		Role:      domain.WorkerRoleAgent,
		Active:    true,
		CreatedAt: Monday.AddDate(0, -1, 0),
		UpdatedAt: Monday.AddDate(0, -1, 0),
	}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

// Slot builds an availability slot from "HH:MM" bounds. It panics on
// malformed input.
func Slot(workerID string, date time.Time, start, end string) domain.AvailabilitySlot {
	s, err := domain.ParseClockTime(start)
	if err != nil {
		panic(err)
	}
	e, err := domain.ParseClockTime(end)
	if err != nil {
		panic(err)
	}
	return domain.AvailabilitySlot{
		ID:       fmt.Sprintf("slot-%s-%s-%s", workerID, domain.DateKey(date), start),
		WorkerID: workerID,
		Date:     date,
		Start:    s,
		End:      e,
	}
}

// EndedSession builds a finished session lasting minutes.
func EndedSession(id, ticketID, workerID string, start time.Time, minutes int) domain.WorkSession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return domain.WorkSession{
		ID:              id,
		TicketID:        ticketID,
		WorkerID:        workerID,
		StartedAt:       start,
		EndedAt:         &end,
		DurationMinutes: &minutes,
		CreatedAt:       start,
	}
}
