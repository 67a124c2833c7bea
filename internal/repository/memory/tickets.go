package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type ticketRepository struct {
	store *Store
}

// NewTicketRepository returns a TicketRepository over the store.
func NewTicketRepository(store *Store) repository.TicketRepository {
	return &ticketRepository{store: store}
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.tickets[ticket.ID]; exists {
		return fmt.Errorf("insert ticket: %w", repository.ErrDuplicate)
	}
	r.store.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.tickets[ticket.ID]; !exists {
		return fmt.Errorf("update ticket: %w", repository.ErrNotFound)
	}
	r.store.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.tickets[id]
	if !ok {
		return nil, fmt.Errorf("get ticket: %w", repository.ErrNotFound)
	}
	t = cloneTicket(t)
	return &t, nil
}

func (r *ticketRepository) ListBacklog(_ context.Context, filter repository.BacklogFilter) ([]domain.Ticket, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.OpenTicketStatuses()
	}
	statusSet := toSet(statuses)
	categorySet := toSet(filter.CategoryIDs)
	prioritySet := toSet(filter.Priorities)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []domain.Ticket
	for _, t := range r.store.tickets {
		if t.Status == domain.TicketStatusClosed {
			continue
		}
		if _, ok := statusSet[t.Status]; !ok {
			continue
		}
		if len(categorySet) > 0 {
			if _, ok := categorySet[t.Category.ID]; !ok {
				continue
			}
		}
		if len(prioritySet) > 0 {
			if _, ok := prioritySet[t.Priority]; !ok {
				continue
			}
		}
		result = append(result, cloneTicket(t))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *ticketRepository) ListClosedForWorker(_ context.Context, filter repository.HistoryFilter) ([]repository.ClosedTicketRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	spent := make(map[string]int)
	worked := make(map[string]bool)
	for _, s := range r.store.sessions {
		if s.WorkerID != filter.WorkerID || s.EndedAt == nil {
			continue
		}
		worked[s.TicketID] = true
		spent[s.TicketID] += s.Minutes(*s.EndedAt)
	}

	var result []repository.ClosedTicketRecord
	for id := range worked {
		t, ok := r.store.tickets[id]
		if !ok || t.Status != domain.TicketStatusClosed || t.ClosedAt == nil {
			continue
		}
		if t.Category.ID != filter.CategoryID {
			continue
		}
		if filter.From != nil && t.ClosedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.ClosedAt.After(*filter.To) {
			continue
		}
		result = append(result, repository.ClosedTicketRecord{
			TicketID:       t.ID,
			DefaultMinutes: t.Category.DefaultMinutes,
			SpentMinutes:   spent[id],
			ClosedAt:       *t.ClosedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ClosedAt.Equal(result[j].ClosedAt) {
			return result[i].ClosedAt.Before(result[j].ClosedAt)
		}
		return result[i].TicketID < result[j].TicketID
	})
	return result, nil
}

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
