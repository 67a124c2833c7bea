package testutil

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// FailTicketUpdateUoW wraps a UnitOfWork so that every ticket update inside
// a transaction fails with Err. Session writes pass through, which lets
// tests check that they are rolled back.
type FailTicketUpdateUoW struct {
	Inner repository.UnitOfWork
	Err   error
}

func (u *FailTicketUpdateUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return u.Inner.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		repos.Tickets = &failTicketUpdate{TicketRepository: repos.Tickets, err: u.Err}
		return fn(ctx, repos)
	})
}

type failTicketUpdate struct {
	repository.TicketRepository
	err error
}

func (f *failTicketUpdate) Update(context.Context, *domain.Ticket) error {
	return f.err
}
