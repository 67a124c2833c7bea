package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository builds repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, managerID string) (*domain.AutoAssignmentSettings, error) {
	const query = `
        SELECT manager_id, enabled, consider_efficiency, consider_availability, max_tickets_per_worker,
               last_run_at, tickets_assigned, updated_at
        FROM auto_assignment_settings WHERE manager_id=$1`
	var s domain.AutoAssignmentSettings
	if err := r.pool.QueryRow(ctx, query, managerID).Scan(
		&s.ManagerID,
		&s.Enabled,
		&s.ConsiderEfficiency,
		&s.ConsiderAvailability,
		&s.MaxTicketsPerWorker,
		&s.LastRunAt,
		&s.TicketsAssigned,
		&s.UpdatedAt,
	); err != nil {
		return nil, mapPgError("get auto-assignment settings", err)
	}
	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *domain.AutoAssignmentSettings) error {
	const query = `
        INSERT INTO auto_assignment_settings (manager_id, enabled, consider_efficiency, consider_availability,
            max_tickets_per_worker, last_run_at, tickets_assigned, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (manager_id) DO UPDATE SET
            enabled=EXCLUDED.enabled,
            consider_efficiency=EXCLUDED.consider_efficiency,
            consider_availability=EXCLUDED.consider_availability,
            max_tickets_per_worker=EXCLUDED.max_tickets_per_worker,
            updated_at=EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, query,
		s.ManagerID,
		s.Enabled,
		s.ConsiderEfficiency,
		s.ConsiderAvailability,
		s.MaxTicketsPerWorker,
		s.LastRunAt,
		s.TicketsAssigned,
		s.UpdatedAt,
	)
	return mapPgError("save auto-assignment settings", err)
}

// RecordRun increments the counter in place.
func (r *settingsRepository) RecordRun(ctx context.Context, managerID string, at time.Time, assigned int) error {
	const query = `
        UPDATE auto_assignment_settings
        SET last_run_at=$1, tickets_assigned=tickets_assigned+$2
        WHERE manager_id=$3`
	cmd, err := r.pool.Exec(ctx, query, at, assigned, managerID)
	if err != nil {
		return mapPgError("record auto-assignment run", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapPgError("record auto-assignment run", pgx.ErrNoRows)
	}
	return nil
}
