package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// BacklogSource yields the open tickets a worker may be scheduled for, in the
// order they should be considered. The scheduler does not re-sort it.
type BacklogSource interface {
	Backlog(ctx context.Context, workerID string, filter repository.BacklogFilter) ([]domain.Ticket, error)
}

// AvailabilitySource reads a worker's availability windows.
type AvailabilitySource interface {
	ListSlots(ctx context.Context, workerID string, from, to time.Time) ([]domain.AvailabilitySlot, error)
	HasSlotOn(ctx context.Context, workerID string, date time.Time) (bool, error)
}

// TicketHistorySource returns closed tickets with the worker's time spent on them.
type TicketHistorySource interface {
	ListClosedForWorker(ctx context.Context, filter repository.HistoryFilter) ([]repository.ClosedTicketRecord, error)
}

// CategoryAccess decides whether a worker may handle tickets of a category.
type CategoryAccess interface {
	CanAccessCategory(ctx context.Context, workerID, categoryID string) (bool, error)
}

// IDGenerator produces opaque identifiers.
type IDGenerator func() string

func defaultIDGenerator(gen IDGenerator) IDGenerator {
	if gen == nil {
		return uuid.NewString
	}
	return gen
}
