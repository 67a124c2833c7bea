package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// repositoryBacklog narrows the ticket backlog to the categories a worker
// serves. Workers without assigned categories see every category.
type repositoryBacklog struct {
	tickets repository.TicketRepository
	workers repository.WorkerRepository
}

// NewBacklogSource builds a BacklogSource over the ticket and worker stores.
func NewBacklogSource(tickets repository.TicketRepository, workers repository.WorkerRepository) BacklogSource {
	return &repositoryBacklog{tickets: tickets, workers: workers}
}

func (b *repositoryBacklog) Backlog(ctx context.Context, workerID string, filter repository.BacklogFilter) ([]domain.Ticket, error) {
	worker, err := b.workers.GetByID(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("load worker for backlog: %w", err)
	}
	if len(worker.CategoryIDs) > 0 {
		scoped := intersect(worker.CategoryIDs, filter.CategoryIDs)
		if len(scoped) == 0 {
			return nil, nil
		}
		filter.CategoryIDs = scoped
	}
	return b.tickets.ListBacklog(ctx, filter)
}

// intersect keeps the members of allowed that appear in requested. An empty
// request keeps all of allowed.
func intersect(allowed, requested []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), allowed...)
	}
	want := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}
	var out []string
	for _, id := range allowed {
		if _, ok := want[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// translateLookup maps a repository miss to a NOT_FOUND domain error for the
// named resource and wraps anything else as an internal failure.
func translateLookup(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
