package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

const sessionColumns = `id, ticket_id, worker_id, started_at, ended_at, duration_minutes, is_phone_call, created_at`

type workSessionRepository struct {
	db DBTX
}

// NewWorkSessionRepository builds repository.
func NewWorkSessionRepository(db DBTX) WorkSessionRepository {
	return &workSessionRepository{db: db}
}

// Create relies on the partial unique index work_sessions_one_active to
// reject a second open session for the same ticket and worker.
func (r *workSessionRepository) Create(ctx context.Context, session *domain.WorkSession) error {
	const query = `
        INSERT INTO work_sessions (id, ticket_id, worker_id, started_at, ended_at, duration_minutes, is_phone_call, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.TicketID,
		session.WorkerID,
		session.StartedAt,
		session.EndedAt,
		session.DurationMinutes,
		session.IsPhoneCall,
		session.CreatedAt,
	)
	return mapPgError("insert work session", err)
}

func (r *workSessionRepository) End(ctx context.Context, session *domain.WorkSession) error {
	const query = `
        UPDATE work_sessions SET ended_at=$1, duration_minutes=$2
        WHERE id=$3 AND ended_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, session.EndedAt, session.DurationMinutes, session.ID)
	if err != nil {
		return mapPgError("end work session", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapPgError("end work session", pgx.ErrNoRows)
	}
	return nil
}

func (r *workSessionRepository) GetActive(ctx context.Context, ticketID, workerID string) (*domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
        WHERE ticket_id=$1 AND worker_id=$2 AND ended_at IS NULL`
	sessions, err := r.query(ctx, "get active work session", query, ticketID, workerID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, mapPgError("get active work session", pgx.ErrNoRows)
	}
	return &sessions[0], nil
}

func (r *workSessionRepository) ListActiveByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
        WHERE ticket_id=$1 AND ended_at IS NULL ORDER BY started_at ASC`
	return r.query(ctx, "list active work sessions", query, ticketID)
}

func (r *workSessionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
        WHERE ticket_id=$1 ORDER BY started_at ASC, id ASC`
	return r.query(ctx, "list work sessions", query, ticketID)
}

func (r *workSessionRepository) ListByWorker(ctx context.Context, workerID string, from, to time.Time) ([]domain.WorkSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM work_sessions
        WHERE worker_id=$1 AND started_at >= $2 AND started_at < $3 ORDER BY started_at ASC`
	return r.query(ctx, "list worker sessions", query, workerID, from, to)
}

func (r *workSessionRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.WorkSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(op, err)
	}
	defer rows.Close()

	var result []domain.WorkSession
	for rows.Next() {
		var s domain.WorkSession
		if err := rows.Scan(
			&s.ID,
			&s.TicketID,
			&s.WorkerID,
			&s.StartedAt,
			&s.EndedAt,
			&s.DurationMinutes,
			&s.IsPhoneCall,
			&s.CreatedAt,
		); err != nil {
			return nil, mapPgError(op, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(op, err)
	}
	return result, nil
}
