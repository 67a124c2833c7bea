package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

// BacklogFilter narrows the open tickets considered for scheduling.
// Empty slices mean "no restriction".
type BacklogFilter struct {
	CategoryIDs []string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Limit       int
}

// HistoryFilter selects closed tickets a worker spent time on.
type HistoryFilter struct {
	WorkerID   string
	CategoryID string
	From       *time.Time
	To         *time.Time
}

// ClosedTicketRecord is one closed ticket with the worker's time spent on it.
type ClosedTicketRecord struct {
	TicketID       string
	DefaultMinutes int
	SpentMinutes   int
	ClosedAt       time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListBacklog returns open tickets oldest first.
	ListBacklog(ctx context.Context, filter BacklogFilter) ([]domain.Ticket, error)
	ListClosedForWorker(ctx context.Context, filter HistoryFilter) ([]ClosedTicketRecord, error)
}

// WorkSessionRepository stores registered time.
type WorkSessionRepository interface {
	// Create inserts a session. Inserting a second active session for the
	// same ticket and worker fails with ErrDuplicate.
	Create(ctx context.Context, session *domain.WorkSession) error
	// End persists the end timestamp and duration of an active session.
	End(ctx context.Context, session *domain.WorkSession) error
	GetActive(ctx context.Context, ticketID, workerID string) (*domain.WorkSession, error)
	ListActiveByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error)
	// ListByWorker returns sessions started in [from, to).
	ListByWorker(ctx context.Context, workerID string, from, to time.Time) ([]domain.WorkSession, error)
}

// AssignmentRepository stores schedule assignments.
type AssignmentRepository interface {
	// Create fails with ErrDuplicate when the (worker, ticket, date) triple exists.
	Create(ctx context.Context, assignment *domain.ScheduleAssignment) error
	Delete(ctx context.Context, workerID, ticketID string, date time.Time) error
	Exists(ctx context.Context, workerID, ticketID string, date time.Time) (bool, error)
	// ListByWorker returns assignments dated between from and to inclusive,
	// ordered by date then assignment time.
	ListByWorker(ctx context.Context, workerID string, from, to time.Time) ([]domain.ScheduleAssignment, error)
}

// AvailabilityRepository reads worker availability windows.
type AvailabilityRepository interface {
	// ListSlots returns slots dated between from and to inclusive.
	ListSlots(ctx context.Context, workerID string, from, to time.Time) ([]domain.AvailabilitySlot, error)
	HasSlotOn(ctx context.Context, workerID string, date time.Time) (bool, error)
}

// CategoryRepository reads ticket categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// WorkerRepository reads workers and their category scope.
type WorkerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Worker, error)
	GetByEmail(ctx context.Context, email string) (*domain.Worker, error)
	ListActive(ctx context.Context, role *domain.WorkerRole) ([]domain.Worker, error)
}

// SettingsRepository stores auto-assignment settings per manager.
type SettingsRepository interface {
	Get(ctx context.Context, managerID string) (*domain.AutoAssignmentSettings, error)
	Save(ctx context.Context, settings *domain.AutoAssignmentSettings) error
	RecordRun(ctx context.Context, managerID string, at time.Time, assigned int) error
}
