package memory

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type unitOfWork struct {
	store *Store
}

// NewUnitOfWork returns a UnitOfWork over the store. A failed transaction
// undoes its own writes in reverse order; it is not isolated from readers
// while it runs.
func NewUnitOfWork(store *Store) repository.UnitOfWork {
	return &unitOfWork{store: store}
}

func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	tx := &memoryTx{store: u.store}
	repos := repository.TxRepositories{
		Tickets:  &txTickets{TicketRepository: NewTicketRepository(u.store), tx: tx},
		Sessions: &txSessions{WorkSessionRepository: NewWorkSessionRepository(u.store), tx: tx},
	}

	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, repos); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type memoryTx struct {
	store *Store
	mu    sync.Mutex
	undo  []func(*Store)
}

func (t *memoryTx) onRollback(fn func(*Store)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, fn)
}

func (t *memoryTx) rollback() {
	t.mu.Lock()
	undo := t.undo
	t.undo = nil
	t.mu.Unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i](t.store)
	}
}

type txTickets struct {
	repository.TicketRepository
	tx *memoryTx
}

func (r *txTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.TicketRepository.Create(ctx, ticket); err != nil {
		return err
	}
	id := ticket.ID
	r.tx.onRollback(func(s *Store) { delete(s.tickets, id) })
	return nil
}

func (r *txTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.tx.store.mu.RLock()
	prev, ok := r.tx.store.tickets[ticket.ID]
	r.tx.store.mu.RUnlock()

	if err := r.TicketRepository.Update(ctx, ticket); err != nil {
		return err
	}
	if ok {
		prev = cloneTicket(prev)
		r.tx.onRollback(func(s *Store) { s.tickets[prev.ID] = prev })
	}
	return nil
}

type txSessions struct {
	repository.WorkSessionRepository
	tx *memoryTx
}

func (r *txSessions) Create(ctx context.Context, session *domain.WorkSession) error {
	if err := r.WorkSessionRepository.Create(ctx, session); err != nil {
		return err
	}
	id := session.ID
	r.tx.onRollback(func(s *Store) { delete(s.sessions, id) })
	return nil
}

func (r *txSessions) End(ctx context.Context, session *domain.WorkSession) error {
	r.tx.store.mu.RLock()
	prev, ok := r.tx.store.sessions[session.ID]
	r.tx.store.mu.RUnlock()

	if err := r.WorkSessionRepository.End(ctx, session); err != nil {
		return err
	}
	if ok {
		prev = cloneSession(prev)
		r.tx.onRollback(func(s *Store) { s.sessions[prev.ID] = prev })
	}
	return nil
}
