package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

const workerSelect = `
        SELECT w.id, w.name, w.email, w.password_hash, w.role, w.active, w.created_at, w.updated_at,
               COALESCE(array_agg(wc.category_id ORDER BY wc.category_id) FILTER (WHERE wc.category_id IS NOT NULL), '{}')
        FROM workers w
        LEFT JOIN worker_categories wc ON wc.worker_id = w.id`

const workerGroupBy = ` GROUP BY w.id, w.name, w.email, w.password_hash, w.role, w.active, w.created_at, w.updated_at`

type workerRepository struct {
	pool *pgxpool.Pool
}

// NewWorkerRepository instantiates the repository.
func NewWorkerRepository(pool *pgxpool.Pool) WorkerRepository {
	return &workerRepository{pool: pool}
}

func (r *workerRepository) GetByID(ctx context.Context, id string) (*domain.Worker, error) {
	return r.fetchSingle(ctx, "get worker", workerSelect+` WHERE w.id=$1`+workerGroupBy, id)
}

func (r *workerRepository) GetByEmail(ctx context.Context, email string) (*domain.Worker, error) {
	return r.fetchSingle(ctx, "get worker by email", workerSelect+` WHERE lower(w.email)=lower($1)`+workerGroupBy, email)
}

func (r *workerRepository) ListActive(ctx context.Context, role *domain.WorkerRole) ([]domain.Worker, error) {
	query := workerSelect + ` WHERE w.active`
	args := []any{}
	if role != nil {
		args = append(args, *role)
		query += fmt.Sprintf(" AND w.role=$%d", len(args))
	}
	query += workerGroupBy + ` ORDER BY w.created_at ASC, w.id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError("list workers", err)
	}
	defer rows.Close()
	workers, err := scanWorkers(rows)
	if err != nil {
		return nil, mapPgError("list workers", err)
	}
	return workers, nil
}

func (r *workerRepository) fetchSingle(ctx context.Context, op, query string, arg any) (*domain.Worker, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPgError(op, err)
	}
	defer rows.Close()
	workers, err := scanWorkers(rows)
	if err != nil {
		return nil, mapPgError(op, err)
	}
	if len(workers) == 0 {
		return nil, mapPgError(op, pgx.ErrNoRows)
	}
	return &workers[0], nil
}

func scanWorkers(rows pgx.Rows) ([]domain.Worker, error) {
	var result []domain.Worker
	for rows.Next() {
		var w domain.Worker
		if err := rows.Scan(
			&w.ID,
			&w.Name,
			&w.Email,
			&w.PasswordHash,
			&w.Role,
			&w.Active,
			&w.CreatedAt,
			&w.UpdatedAt,
			&w.CategoryIDs,
		); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
