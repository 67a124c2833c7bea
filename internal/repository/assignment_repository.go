package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

// Create relies on the (worker_id, ticket_id, scheduled_date) unique
// constraint so that concurrent writers cannot both succeed.
func (r *assignmentRepository) Create(ctx context.Context, a *domain.ScheduleAssignment) error {
	const query = `
        INSERT INTO schedule_assignments (id, worker_id, ticket_id, scheduled_date, assigned_at, assigned_by, is_auto_assigned, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.WorkerID,
		a.TicketID,
		a.ScheduledDate,
		a.AssignedAt,
		a.AssignedBy,
		a.IsAutoAssigned,
		a.Priority,
	)
	return mapPgError("insert schedule assignment", err)
}

func (r *assignmentRepository) Delete(ctx context.Context, workerID, ticketID string, date time.Time) error {
	const query = `DELETE FROM schedule_assignments WHERE worker_id=$1 AND ticket_id=$2 AND scheduled_date=$3`
	cmd, err := r.pool.Exec(ctx, query, workerID, ticketID, date)
	if err != nil {
		return mapPgError("delete schedule assignment", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapPgError("delete schedule assignment", pgx.ErrNoRows)
	}
	return nil
}

func (r *assignmentRepository) Exists(ctx context.Context, workerID, ticketID string, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM schedule_assignments WHERE worker_id=$1 AND ticket_id=$2 AND scheduled_date=$3)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, workerID, ticketID, date).Scan(&exists); err != nil {
		return false, mapPgError("check schedule assignment", err)
	}
	return exists, nil
}

func (r *assignmentRepository) ListByWorker(ctx context.Context, workerID string, from, to time.Time) ([]domain.ScheduleAssignment, error) {
	const query = `
        SELECT id, worker_id, ticket_id, scheduled_date, assigned_at, assigned_by, is_auto_assigned, priority
        FROM schedule_assignments
        WHERE worker_id=$1 AND scheduled_date BETWEEN $2 AND $3
        ORDER BY scheduled_date ASC, assigned_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, workerID, from, to)
	if err != nil {
		return nil, mapPgError("list schedule assignments", err)
	}
	defer rows.Close()

	var result []domain.ScheduleAssignment
	for rows.Next() {
		var a domain.ScheduleAssignment
		if err := rows.Scan(
			&a.ID,
			&a.WorkerID,
			&a.TicketID,
			&a.ScheduledDate,
			&a.AssignedAt,
			&a.AssignedBy,
			&a.IsAutoAssigned,
			&a.Priority,
		); err != nil {
			return nil, mapPgError("scan schedule assignment", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("list schedule assignments", err)
	}
	return result, nil
}
