// Package memory implements the repository interfaces on in-process maps.
// It backs the service when no Postgres DSN is configured and in tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Store holds every table behind a single mutex so that the uniqueness checks
// on active sessions and assignments are atomic with their inserts.
type Store struct {
	mu          sync.RWMutex
	tickets     map[string]domain.Ticket
	sessions    map[string]domain.WorkSession
	assignments map[string]domain.ScheduleAssignment
	slots       []domain.AvailabilitySlot
	categories  map[string]domain.Category
	workers     map[string]domain.Worker
	settings    map[string]domain.AutoAssignmentSettings
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tickets:     make(map[string]domain.Ticket),
		sessions:    make(map[string]domain.WorkSession),
		assignments: make(map[string]domain.ScheduleAssignment),
		categories:  make(map[string]domain.Category),
		workers:     make(map[string]domain.Worker),
		settings:    make(map[string]domain.AutoAssignmentSettings),
	}
}

// PutTicket inserts or replaces a ticket.
func (s *Store) PutTicket(t domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
}

// PutCategory inserts or replaces a category.
func (s *Store) PutCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// PutWorker inserts or replaces a worker.
func (s *Store) PutWorker(w domain.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.CategoryIDs = append([]string(nil), w.CategoryIDs...)
	s.workers[w.ID] = w
}

// AddSlot appends an availability slot.
func (s *Store) AddSlot(slot domain.AvailabilitySlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.Date = domain.StartOfDay(slot.Date)
	s.slots = append(s.slots, slot)
}

// PutSession inserts a session without the active-uniqueness check.
// Used to seed history.
func (s *Store) PutSession(ws domain.WorkSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ws.ID] = cloneSession(ws)
}

// ResetAssignments drops every schedule assignment.
func (s *Store) ResetAssignments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = make(map[string]domain.ScheduleAssignment)
}

func cloneSession(ws domain.WorkSession) domain.WorkSession {
	if ws.EndedAt != nil {
		end := *ws.EndedAt
		ws.EndedAt = &end
	}
	if ws.DurationMinutes != nil {
		d := *ws.DurationMinutes
		ws.DurationMinutes = &d
	}
	return ws
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		t.UpdatedAt = &u
	}
	if t.ClosedAt != nil {
		c := *t.ClosedAt
		t.ClosedAt = &c
	}
	if t.ClosedBy != nil {
		b := *t.ClosedBy
		t.ClosedBy = &b
	}
	return t
}

func sameDate(a, b time.Time) bool {
	return domain.DateKey(a) == domain.DateKey(b)
}

// withinDates reports whether d falls on or between from and to by calendar date.
func withinDates(d, from, to time.Time) bool {
	key := domain.DateKey(d)
	return key >= domain.DateKey(from) && key <= domain.DateKey(to)
}

func sortSessions(sessions []domain.WorkSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
