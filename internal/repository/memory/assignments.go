package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type assignmentRepository struct {
	store *Store
}

// NewAssignmentRepository returns an AssignmentRepository over the store.
func NewAssignmentRepository(store *Store) repository.AssignmentRepository {
	return &assignmentRepository{store: store}
}

func (r *assignmentRepository) Create(_ context.Context, a *domain.ScheduleAssignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := a.Key()
	if _, exists := r.store.assignments[key]; exists {
		return fmt.Errorf("insert schedule assignment: %w", repository.ErrDuplicate)
	}
	stored := *a
	stored.ScheduledDate = domain.StartOfDay(a.ScheduledDate)
	r.store.assignments[key] = stored
	return nil
}

func (r *assignmentRepository) Delete(_ context.Context, workerID, ticketID string, date time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := domain.AssignmentKey(workerID, ticketID, date)
	if _, exists := r.store.assignments[key]; !exists {
		return fmt.Errorf("delete schedule assignment: %w", repository.ErrNotFound)
	}
	delete(r.store.assignments, key)
	return nil
}

func (r *assignmentRepository) Exists(_ context.Context, workerID, ticketID string, date time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, exists := r.store.assignments[domain.AssignmentKey(workerID, ticketID, date)]
	return exists, nil
}

func (r *assignmentRepository) ListByWorker(_ context.Context, workerID string, from, to time.Time) ([]domain.ScheduleAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.ScheduleAssignment
	for _, a := range r.store.assignments {
		if a.WorkerID == workerID && withinDates(a.ScheduledDate, from, to) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		di, dj := domain.DateKey(result[i].ScheduledDate), domain.DateKey(result[j].ScheduledDate)
		if di != dj {
			return di < dj
		}
		if !result[i].AssignedAt.Equal(result[j].AssignedAt) {
			return result[i].AssignedAt.Before(result[j].AssignedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
