package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/clock"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// WorkSessionService drives the ticket status machine through registered work.
type WorkSessionService struct {
	tickets    repository.TicketRepository
	sessions   repository.WorkSessionRepository
	uow        repository.UnitOfWork
	clock      clock.Clock
	newID      IDGenerator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// WorkSessionDependencies bundles collaborators for the work-session service.
type WorkSessionDependencies struct {
	TicketRepo  repository.TicketRepository
	SessionRepo repository.WorkSessionRepository
	// UnitOfWork groups a session write with the ticket status change it
	// causes. When nil the writes go straight to the repositories.
	UnitOfWork  repository.UnitOfWork
	Clock       clock.Clock
	IDGenerator IDGenerator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewWorkSessionService creates the service.
func NewWorkSessionService(deps WorkSessionDependencies) *WorkSessionService {
	c := deps.Clock
	if c == nil {
		c = clock.Real(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uow := deps.UnitOfWork
	if uow == nil {
		uow = directUnitOfWork{repos: repository.TxRepositories{Tickets: deps.TicketRepo, Sessions: deps.SessionRepo}}
	}
	return &WorkSessionService{
		tickets:    deps.TicketRepo,
		sessions:   deps.SessionRepo,
		uow:        uow,
		clock:      c,
		newID:      defaultIDGenerator(deps.IDGenerator),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// StartWork opens a session for the worker and moves the ticket to in_progress.
// Both writes commit together.
func (s *WorkSessionService) StartWork(ctx context.Context, ticketID, workerID string) (*domain.WorkSession, error) {
	if err := requireIDs(map[string]string{"ticket_id": ticketID, "worker_id": workerID}); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var session *domain.WorkSession
	var change *statusChange
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		ticket, err := loadTicket(ctx, repos.Tickets, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return apperrors.NewAlreadyClosed(ticketID)
		}

		if _, err := repos.Sessions.GetActive(ctx, ticketID, workerID); err == nil {
			return apperrors.NewActiveWorkExists(ticketID, workerID)
		} else if !isNotFound(err) {
			return apperrors.MapError(err)
		}

		session = &domain.WorkSession{
			ID:        s.newID(),
			TicketID:  ticketID,
			WorkerID:  workerID,
			StartedAt: now,
			CreatedAt: now,
		}
		if err := repos.Sessions.Create(ctx, session); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewActiveWorkExists(ticketID, workerID)
			}
			return apperrors.MapError(err)
		}

		if ticket.Status != domain.TicketStatusInProgress {
			change, err = setStatus(ctx, repos.Tickets, ticket, domain.TicketStatusInProgress, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordWorkStarted()
	s.logger.Info("work started", zap.String("ticket_id", ticketID), zap.String("worker_id", workerID))
	s.publishStatusChange(ctx, change, now)
	s.publish(ctx, events.EventWorkStarted, ticketID, workerID, now, events.WorkSessionPayload{SessionID: session.ID})
	return session, nil
}

// StopWork ends the worker's active session. The duration is derived from the
// interval unless durationOverride is given. The ticket falls back to
// awaiting_response once nobody is working on it.
func (s *WorkSessionService) StopWork(ctx context.Context, ticketID, workerID string, durationOverride *int) (*domain.WorkSession, error) {
	if err := requireIDs(map[string]string{"ticket_id": ticketID, "worker_id": workerID}); err != nil {
		return nil, err
	}
	if durationOverride != nil && *durationOverride < 0 {
		return nil, apperrors.NewInvalidTimeEntry(*durationOverride)
	}
	now := s.clock.Now()

	var session *domain.WorkSession
	var change *statusChange
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		session, err = repos.Sessions.GetActive(ctx, ticketID, workerID)
		if err != nil {
			if isNotFound(err) {
				return apperrors.NewWorkNotFound(ticketID, workerID)
			}
			return apperrors.MapError(err)
		}
		if err := session.End(now, durationOverride); err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{"session_id": session.ID})
		}
		if err := repos.Sessions.End(ctx, session); err != nil {
			if isNotFound(err) {
				return apperrors.NewWorkNotFound(ticketID, workerID)
			}
			return apperrors.MapError(err)
		}

		ticket, err := loadTicket(ctx, repos.Tickets, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != domain.TicketStatusInProgress {
			return nil
		}
		remaining, err := repos.Sessions.ListActiveByTicket(ctx, ticketID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if len(remaining) == 0 {
			change, err = setStatus(ctx, repos.Tickets, ticket, domain.TicketStatusAwaitingResponse, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("work stopped",
		zap.String("ticket_id", ticketID),
		zap.String("worker_id", workerID),
		zap.Int("duration_minutes", *session.DurationMinutes))
	s.publishStatusChange(ctx, change, now)
	s.publish(ctx, events.EventWorkStopped, ticketID, workerID, now, events.WorkSessionPayload{
		SessionID:       session.ID,
		DurationMinutes: session.DurationMinutes,
	})
	return session, nil
}

// RegisterManualTimeEntry books minutes of already finished work ending now.
// The ticket status is left alone.
func (s *WorkSessionService) RegisterManualTimeEntry(ctx context.Context, ticketID, workerID string, minutes int, isPhoneCall bool) (*domain.WorkSession, error) {
	if err := requireIDs(map[string]string{"ticket_id": ticketID, "worker_id": workerID}); err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, apperrors.NewInvalidTimeEntry(minutes)
	}
	now := s.clock.Now()

	if _, err := loadTicket(ctx, s.tickets, ticketID); err != nil {
		return nil, err
	}

	end := now
	duration := minutes
	session := &domain.WorkSession{
		ID:              s.newID(),
		TicketID:        ticketID,
		WorkerID:        workerID,
		StartedAt:       now.Add(-time.Duration(minutes) * time.Minute),
		EndedAt:         &end,
		DurationMinutes: &duration,
		IsPhoneCall:     isPhoneCall,
		CreatedAt:       now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("time registered",
		zap.String("ticket_id", ticketID),
		zap.String("worker_id", workerID),
		zap.Int("minutes", minutes),
		zap.Bool("phone_call", isPhoneCall))
	s.publish(ctx, events.EventTimeRegistered, ticketID, workerID, now, events.WorkSessionPayload{
		SessionID:       session.ID,
		IsPhoneCall:     isPhoneCall,
		DurationMinutes: session.DurationMinutes,
	})
	return session, nil
}

// ChangeStatus moves an open ticket to another open status. Closing goes
// through Close. Changing to the current status is a no-op.
func (s *WorkSessionService) ChangeStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewInvalidArgument("ticket_id")
	}
	if !status.Valid() {
		return nil, apperrors.NewInvalidStatus(string(status), "unknown ticket status")
	}
	if status == domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidStatus(string(status), "use close to close a ticket")
	}
	now := s.clock.Now()

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() {
		return nil, apperrors.NewAlreadyClosed(ticketID)
	}
	if ticket.Status == status {
		return ticket, nil
	}
	change, err := setStatus(ctx, s.tickets, ticket, status, now)
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, change, now)
	return ticket, nil
}

// Close finalises the ticket. It refuses while any worker has an active session.
func (s *WorkSessionService) Close(ctx context.Context, ticketID, workerID string, closedAt *time.Time) (*domain.Ticket, error) {
	if err := requireIDs(map[string]string{"ticket_id": ticketID, "worker_id": workerID}); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	closed := now
	if closedAt != nil {
		closed = *closedAt
	}
	closer := workerID

	var ticket *domain.Ticket
	var oldStatus domain.TicketStatus
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos.Tickets, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return apperrors.NewAlreadyClosed(ticketID)
		}

		active, err := repos.Sessions.ListActiveByTicket(ctx, ticketID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if len(active) > 0 {
			workers := make([]string, 0, len(active))
			for _, session := range active {
				workers = append(workers, session.WorkerID)
			}
			return apperrors.NewActiveSessionsRemain(ticketID, workers)
		}

		oldStatus = ticket.Status
		ticket.Status = domain.TicketStatusClosed
		ticket.ClosedAt = &closed
		ticket.ClosedBy = &closer
		ticket.Touch(now)
		return apperrors.MapError(repos.Tickets.Update(ctx, ticket))
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket closed", zap.String("ticket_id", ticketID), zap.String("worker_id", workerID))
	s.publish(ctx, events.EventTicketStatusChanged, ticketID, workerID, now, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: domain.TicketStatusClosed,
	})
	s.publish(ctx, events.EventTicketClosed, ticketID, workerID, now, events.TicketClosedPayload{
		ClosedAt: closed,
		ClosedBy: closer,
	})
	return ticket, nil
}

// ListSessions returns every session registered on the ticket in start order.
func (s *WorkSessionService) ListSessions(ctx context.Context, ticketID string) ([]domain.WorkSession, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, apperrors.NewInvalidArgument("ticket_id")
	}
	if _, err := loadTicket(ctx, s.tickets, ticketID); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sessions, nil
}

type statusChange struct {
	ticketID string
	from     domain.TicketStatus
	to       domain.TicketStatus
}

func loadTicket(ctx context.Context, tickets repository.TicketRepository, ticketID string) (*domain.Ticket, error) {
	ticket, err := tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, translateLookup(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func setStatus(ctx context.Context, tickets repository.TicketRepository, ticket *domain.Ticket, status domain.TicketStatus, now time.Time) (*statusChange, error) {
	change := &statusChange{ticketID: ticket.ID, from: ticket.Status, to: status}
	ticket.Status = status
	ticket.Touch(now)
	if err := tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return change, nil
}

func (s *WorkSessionService) publishStatusChange(ctx context.Context, change *statusChange, at time.Time) {
	if change == nil {
		return
	}
	s.publish(ctx, events.EventTicketStatusChanged, change.ticketID, "", at, events.TicketStatusChangedPayload{
		OldStatus: change.from,
		NewStatus: change.to,
	})
}

func (s *WorkSessionService) publish(ctx context.Context, eventType events.EventType, ticketID, workerID string, at time.Time, payload any) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:        s.newID(),
		Type:      eventType,
		TicketID:  ticketID,
		WorkerID:  workerID,
		Timestamp: at,
		Payload:   payload,
	})
}

// directUnitOfWork applies writes without a transaction.
type directUnitOfWork struct {
	repos repository.TxRepositories
}

func (u directUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return fn(ctx, u.repos)
}
