package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// EfficiencyCalculator derives a worker's historical speed in a category.
type EfficiencyCalculator struct {
	history TicketHistorySource
}

// NewEfficiencyCalculator creates the calculator.
func NewEfficiencyCalculator(history TicketHistorySource) *EfficiencyCalculator {
	return &EfficiencyCalculator{history: history}
}

// Efficiency returns the ratio of default to actual minutes over the closed
// tickets the worker spent time on in the category, rounded to two decimals.
// It returns 0 when there is no usable history; callers substitute a neutral
// value via domain.NeutralEfficiency. Only history-source failures are errors.
func (c *EfficiencyCalculator) Efficiency(ctx context.Context, workerID, categoryID string, from, to *time.Time) (float64, error) {
	records, err := c.history.ListClosedForWorker(ctx, repository.HistoryFilter{
		WorkerID:   workerID,
		CategoryID: categoryID,
		From:       from,
		To:         to,
	})
	if err != nil {
		return 0, fmt.Errorf("load ticket history: %w", err)
	}

	var totalDefault, totalActual int
	for _, rec := range records {
		if rec.DefaultMinutes <= 0 {
			continue
		}
		totalDefault += rec.DefaultMinutes
		totalActual += rec.SpentMinutes
	}
	if totalActual <= 0 {
		return 0, nil
	}
	return domain.RoundRatio(float64(totalDefault) / float64(totalActual)), nil
}

// ticketEstimator memoises ticket lookups and per-category efficiency for
// one worker. It lives for a single operation so every estimate reflects the
// history as it was when the operation began.
type ticketEstimator struct {
	workerID   string
	tickets    repository.TicketRepository
	calculator *EfficiencyCalculator

	ticketCache     map[string]*domain.Ticket
	efficiencyCache map[string]float64
}

func newTicketEstimator(workerID string, tickets repository.TicketRepository, calculator *EfficiencyCalculator) *ticketEstimator {
	return &ticketEstimator{
		workerID:        workerID,
		tickets:         tickets,
		calculator:      calculator,
		ticketCache:     make(map[string]*domain.Ticket),
		efficiencyCache: make(map[string]float64),
	}
}

// remember seeds the ticket cache with a ticket already loaded elsewhere.
func (e *ticketEstimator) remember(ticket domain.Ticket) {
	t := ticket
	e.ticketCache[t.ID] = &t
}

// ticket returns the ticket or nil when it does not exist.
func (e *ticketEstimator) ticket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if t, ok := e.ticketCache[ticketID]; ok {
		return t, nil
	}
	t, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if isNotFound(err) {
			e.ticketCache[ticketID] = nil
			return nil, nil
		}
		return nil, err
	}
	e.ticketCache[ticketID] = t
	return t, nil
}

func (e *ticketEstimator) efficiency(ctx context.Context, categoryID string) (float64, error) {
	if eff, ok := e.efficiencyCache[categoryID]; ok {
		return eff, nil
	}
	eff, err := e.calculator.Efficiency(ctx, e.workerID, categoryID, nil, nil)
	if err != nil {
		return 0, err
	}
	e.efficiencyCache[categoryID] = eff
	return eff, nil
}

// estimate returns the efficiency-adjusted minutes the worker needs for the ticket.
func (e *ticketEstimator) estimate(ctx context.Context, ticket *domain.Ticket) (int, error) {
	eff, err := e.efficiency(ctx, ticket.Category.ID)
	if err != nil {
		return 0, err
	}
	return domain.EstimatedMinutes(ticket.Category.DefaultMinutes, domain.NeutralEfficiency(eff)), nil
}

// estimateByID estimates a scheduled ticket. A ticket that no longer exists
// still occupies the one-minute minimum.
func (e *ticketEstimator) estimateByID(ctx context.Context, ticketID string) (int, error) {
	t, err := e.ticket(ctx, ticketID)
	if err != nil {
		return 0, err
	}
	if t == nil {
		return 1, nil
	}
	return e.estimate(ctx, t)
}
