package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

const microsPerMinute = int64(time.Minute / time.Microsecond)

type availabilityRepository struct {
	pool *pgxpool.Pool
}

// NewAvailabilityRepository builds repository.
func NewAvailabilityRepository(pool *pgxpool.Pool) AvailabilityRepository {
	return &availabilityRepository{pool: pool}
}

func (r *availabilityRepository) ListSlots(ctx context.Context, workerID string, from, to time.Time) ([]domain.AvailabilitySlot, error) {
	const query = `
        SELECT id, worker_id, slot_date, start_time, end_time
        FROM availability_slots
        WHERE worker_id=$1 AND slot_date BETWEEN $2 AND $3
        ORDER BY slot_date ASC, start_time ASC`
	rows, err := r.pool.Query(ctx, query, workerID, from, to)
	if err != nil {
		return nil, mapPgError("list availability slots", err)
	}
	defer rows.Close()

	var result []domain.AvailabilitySlot
	for rows.Next() {
		var (
			slot       domain.AvailabilitySlot
			start, end pgtype.Time
		)
		if err := rows.Scan(&slot.ID, &slot.WorkerID, &slot.Date, &start, &end); err != nil {
			return nil, mapPgError("scan availability slot", err)
		}
		slot.Start = clockTime(start)
		slot.End = clockTime(end)
		result = append(result, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError("list availability slots", err)
	}
	return result, nil
}

func (r *availabilityRepository) HasSlotOn(ctx context.Context, workerID string, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM availability_slots WHERE worker_id=$1 AND slot_date=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, workerID, date).Scan(&exists); err != nil {
		return false, mapPgError("check availability", err)
	}
	return exists, nil
}

func clockTime(t pgtype.Time) domain.ClockTime {
	if !t.Valid {
		return 0
	}
	return domain.ClockTime(t.Microseconds / microsPerMinute)
}
