package memory

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type availabilityRepository struct {
	store *Store
}

// NewAvailabilityRepository returns an AvailabilityRepository over the store.
func NewAvailabilityRepository(store *Store) repository.AvailabilityRepository {
	return &availabilityRepository{store: store}
}

func (r *availabilityRepository) ListSlots(_ context.Context, workerID string, from, to time.Time) ([]domain.AvailabilitySlot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.AvailabilitySlot
	for _, slot := range r.store.slots {
		if slot.WorkerID == workerID && withinDates(slot.Date, from, to) {
			result = append(result, slot)
		}
	}
	return result, nil
}

func (r *availabilityRepository) HasSlotOn(_ context.Context, workerID string, date time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, slot := range r.store.slots {
		if slot.WorkerID == workerID && sameDate(slot.Date, date) {
			return true, nil
		}
	}
	return false, nil
}
