package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// CategoryAccess answers whether a worker may handle a ticket category.
// Admins and workers without assigned categories serve every category.
type CategoryAccess struct {
	workers repository.WorkerRepository
}

// NewCategoryAccess builds the check over the worker store.
func NewCategoryAccess(workers repository.WorkerRepository) *CategoryAccess {
	return &CategoryAccess{workers: workers}
}

// CanAccessCategory reports whether the worker serves the category. Unknown
// and inactive workers are denied.
func (a *CategoryAccess) CanAccessCategory(ctx context.Context, workerID, categoryID string) (bool, error) {
	worker, err := a.workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !worker.Active {
		return false, nil
	}
	if worker.Role == domain.WorkerRoleAdmin || len(worker.CategoryIDs) == 0 {
		return true, nil
	}
	return slices.Contains(worker.CategoryIDs, categoryID), nil
}
