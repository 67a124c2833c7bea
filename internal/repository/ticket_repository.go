package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

const ticketColumns = `id, title, category_id, category_name, category_default_minutes,
               client_id, client_name, priority, status, created_at, updated_at, closed_at, closed_by`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, category_id, category_name, category_default_minutes,
            client_id, client_name, priority, status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Category.ID,
		ticket.Category.Name,
		ticket.Category.DefaultMinutes,
		ticket.Client.ID,
		ticket.Client.Name,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedAt,
	)
	return mapPgError("insert ticket", err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, category_id=$2, category_name=$3, category_default_minutes=$4,
            client_id=$5, client_name=$6, priority=$7, status=$8, updated_at=$9, closed_at=$10, closed_by=$11
        WHERE id=$12`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Category.ID,
		ticket.Category.Name,
		ticket.Category.DefaultMinutes,
		ticket.Client.ID,
		ticket.Client.Name,
		ticket.Priority,
		ticket.Status,
		ticket.UpdatedAt,
		ticket.ClosedAt,
		ticket.ClosedBy,
		ticket.ID,
	)
	if err != nil {
		return mapPgError("update ticket", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapPgError("update ticket", pgx.ErrNoRows)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, mapPgError("get ticket", err)
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, mapPgError("get ticket", err)
	}
	if len(tickets) == 0 {
		return nil, mapPgError("get ticket", pgx.ErrNoRows)
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListBacklog(ctx context.Context, filter BacklogFilter) ([]domain.Ticket, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.OpenTicketStatuses()
	}
	args := []any{statusStrings(statuses)}
	clauses := []string{"status = ANY($1)", "status <> 'closed'"}

	if len(filter.CategoryIDs) > 0 {
		args = append(args, filter.CategoryIDs)
		clauses = append(clauses, fmt.Sprintf("category_id = ANY($%d)", len(args)))
	}
	if len(filter.Priorities) > 0 {
		args = append(args, statusStrings(filter.Priorities))
		clauses = append(clauses, fmt.Sprintf("priority = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at ASC, id ASC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError("list backlog", err)
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, mapPgError("list backlog", err)
	}
	return tickets, nil
}

func (r *ticketRepository) ListClosedForWorker(ctx context.Context, filter HistoryFilter) ([]ClosedTicketRecord, error) {
	const query = `
        SELECT t.id, t.category_default_minutes,
               COALESCE(SUM(COALESCE(ws.duration_minutes,
                   ROUND(EXTRACT(EPOCH FROM (ws.ended_at - ws.started_at)) / 60)::int)), 0)::int,
               t.closed_at
        FROM tickets t
        JOIN work_sessions ws ON ws.ticket_id = t.id AND ws.worker_id = $1 AND ws.ended_at IS NOT NULL
        WHERE t.status = 'closed'
          AND t.category_id = $2
          AND ($3::timestamptz IS NULL OR t.closed_at >= $3)
          AND ($4::timestamptz IS NULL OR t.closed_at <= $4)
        GROUP BY t.id, t.category_default_minutes, t.closed_at
        ORDER BY t.closed_at ASC, t.id ASC`
	rows, err := r.db.Query(ctx, query, filter.WorkerID, filter.CategoryID, filter.From, filter.To)
	if err != nil {
		return nil, mapPgError("list closed tickets", err)
	}
	defer rows.Close()

	var result []ClosedTicketRecord
	for rows.Next() {
		var rec ClosedTicketRecord
		if err := rows.Scan(&rec.TicketID, &rec.DefaultMinutes, &rec.SpentMinutes, &rec.ClosedAt); err != nil {
			return nil, mapPgError("scan closed ticket", err)
		}
		result = append(result, rec)
	}
	return result, mapPgError("list closed tickets", rows.Err())
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Category.ID,
			&ticket.Category.Name,
			&ticket.Category.DefaultMinutes,
			&ticket.Client.ID,
			&ticket.Client.Name,
			&ticket.Priority,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
			&ticket.ClosedBy,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
