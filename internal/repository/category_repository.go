package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `SELECT id, name, default_minutes, active FROM categories WHERE id=$1`
	var c domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.DefaultMinutes, &c.Active); err != nil {
		return nil, mapPgError("get category", err)
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, default_minutes, active FROM categories WHERE active ORDER BY name ASC, id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, mapPgError("list categories", err)
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.DefaultMinutes, &c.Active); err != nil {
			return nil, mapPgError("scan category", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("list categories", err)
	}
	return result, nil
}
