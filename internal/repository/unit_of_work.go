package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same repository
// code runs inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

// TxRepositories are the repositories bound to one transaction.
type TxRepositories struct {
	Tickets  TicketRepository
	Sessions WorkSessionRepository
}

// UnitOfWork runs fn inside a transaction. Writes made through the
// repositories handed to fn commit together when it returns nil and are
// rolled back otherwise.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type pgUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a UnitOfWork backed by pgx transactions.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	repos := TxRepositories{
		Tickets:  NewTicketRepository(tx),
		Sessions: NewWorkSessionRepository(tx),
	}
	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
