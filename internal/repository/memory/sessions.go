package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type workSessionRepository struct {
	store *Store
}

// NewWorkSessionRepository returns a WorkSessionRepository over the store.
func NewWorkSessionRepository(store *Store) repository.WorkSessionRepository {
	return &workSessionRepository{store: store}
}

func (r *workSessionRepository) Create(_ context.Context, session *domain.WorkSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.sessions[session.ID]; exists {
		return fmt.Errorf("insert work session: %w", repository.ErrDuplicate)
	}
	if session.Active() {
		for _, existing := range r.store.sessions {
			if existing.Active() && existing.TicketID == session.TicketID && existing.WorkerID == session.WorkerID {
				return fmt.Errorf("insert work session: %w", repository.ErrDuplicate)
			}
		}
	}
	r.store.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (r *workSessionRepository) End(_ context.Context, session *domain.WorkSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.sessions[session.ID]
	if !ok || !existing.Active() {
		return fmt.Errorf("end work session: %w", repository.ErrNotFound)
	}
	existing.EndedAt = session.EndedAt
	existing.DurationMinutes = session.DurationMinutes
	r.store.sessions[session.ID] = cloneSession(existing)
	return nil
}

func (r *workSessionRepository) GetActive(_ context.Context, ticketID, workerID string) (*domain.WorkSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, s := range r.store.sessions {
		if s.Active() && s.TicketID == ticketID && s.WorkerID == workerID {
			found := cloneSession(s)
			return &found, nil
		}
	}
	return nil, fmt.Errorf("get active work session: %w", repository.ErrNotFound)
}

func (r *workSessionRepository) ListActiveByTicket(_ context.Context, ticketID string) ([]domain.WorkSession, error) {
	return r.filter(func(s domain.WorkSession) bool {
		return s.TicketID == ticketID && s.Active()
	}), nil
}

func (r *workSessionRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.WorkSession, error) {
	return r.filter(func(s domain.WorkSession) bool {
		return s.TicketID == ticketID
	}), nil
}

func (r *workSessionRepository) ListByWorker(_ context.Context, workerID string, from, to time.Time) ([]domain.WorkSession, error) {
	return r.filter(func(s domain.WorkSession) bool {
		return s.WorkerID == workerID && !s.StartedAt.Before(from) && s.StartedAt.Before(to)
	}), nil
}

func (r *workSessionRepository) filter(keep func(domain.WorkSession) bool) []domain.WorkSession {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []domain.WorkSession
	for _, s := range r.store.sessions {
		if keep(s) {
			result = append(result, cloneSession(s))
		}
	}
	sortSessions(result)
	return result
}
