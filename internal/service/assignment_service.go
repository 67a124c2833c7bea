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
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// AssignmentService places tickets on worker calendars, by hand or by the
// first-fit auto-assignment scheduler.
type AssignmentService struct {
	tickets      repository.TicketRepository
	assignments  repository.AssignmentRepository
	backlog      BacklogSource
	availability *AvailabilityAggregator
	calculator   *EfficiencyCalculator
	access       CategoryAccess
	locker       persistence.RunLocker
	lockTTL      time.Duration
	clock        clock.Clock
	newID        IDGenerator
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// AssignmentDependencies bundles collaborators for scheduling.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	AssignmentRepo repository.AssignmentRepository
	Backlog        BacklogSource
	Availability   AvailabilitySource
	History        TicketHistorySource
	Access         CategoryAccess
	// Locker serialises auto-assign runs per worker and week. Nil disables it.
	Locker      persistence.RunLocker
	LockTTL     time.Duration
	Clock       clock.Clock
	IDGenerator IDGenerator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	c := deps.Clock
	if c == nil {
		c = clock.Real(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &AssignmentService{
		tickets:      deps.TicketRepo,
		assignments:  deps.AssignmentRepo,
		backlog:      deps.Backlog,
		availability: NewAvailabilityAggregator(deps.Availability),
		calculator:   NewEfficiencyCalculator(deps.History),
		access:       deps.Access,
		locker:       deps.Locker,
		lockTTL:      ttl,
		clock:        c,
		newID:        defaultIDGenerator(deps.IDGenerator),
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		metrics:      deps.Metrics,
	}
}

// AutoAssign fills the worker's week with backlog tickets and returns only the
// assignments it created. Backlog tickets are taken in source order and each
// goes to the earliest day with enough remaining minutes. A ticket that fits
// nowhere is skipped.
func (s *AssignmentService) AutoAssign(ctx context.Context, workerID string, weekStart time.Time, categoryFilter []string) ([]domain.ScheduleAssignment, error) {
	if err := requireIDs(map[string]string{"worker_id": workerID}); err != nil {
		return nil, err
	}
	days := domain.WeekDays(weekStart)

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, "auto-assign:"+workerID+":"+domain.DateKey(days[0]), s.lockTTL)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !ok {
			return nil, apperrors.NewAutoAssignInProgress(workerID)
		}
		defer release()
	}

	now := s.clock.Now()
	estimator := newTicketEstimator(workerID, s.tickets, s.calculator)

	existing, err := s.assignments.ListByWorker(ctx, workerID, days[0], days[len(days)-1])
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	used := make(map[string]int, len(days))
	scheduled := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		minutes, err := estimator.estimateByID(ctx, a.TicketID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		used[domain.DateKey(a.ScheduledDate)] += max(1, minutes)
		scheduled[a.TicketID] = struct{}{}
	}

	available, err := s.availability.MinutesByDay(ctx, workerID, days[0])
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	remaining := make(map[string]int, len(days))
	for _, day := range days {
		key := domain.DateKey(day)
		remaining[key] = max(0, available[key]-used[key])
	}

	backlog, err := s.backlog.Backlog(ctx, workerID, repository.BacklogFilter{CategoryIDs: categoryFilter})
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("worker", map[string]any{"worker_id": workerID})
		}
		return nil, apperrors.MapError(err)
	}

	var created []domain.ScheduleAssignment
	skipped := 0
	for _, ticket := range backlog {
		if _, done := scheduled[ticket.ID]; done {
			continue
		}
		estimator.remember(ticket)
		minutes, err := estimator.estimate(ctx, &ticket)
		if err != nil {
			return nil, apperrors.MapError(err)
		}

		placed := false
		for _, day := range days {
			key := domain.DateKey(day)
			if remaining[key] < minutes {
				continue
			}
			assignment := s.newAssignment(ticket, workerID, day, now, nil, true)
			if err := s.assignments.Create(ctx, &assignment); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					// Placed concurrently by someone else; the ticket is scheduled.
					placed = true
					break
				}
				return nil, apperrors.MapError(err)
			}
			remaining[key] -= minutes
			created = append(created, assignment)
			placed = true
			s.publishScheduled(ctx, events.EventTicketScheduled, assignment, now)
			break
		}
		scheduled[ticket.ID] = struct{}{}
		if !placed {
			skipped++
			s.logger.Debug("ticket does not fit this week",
				zap.String("worker_id", workerID),
				zap.String("ticket_id", ticket.ID),
				zap.Int("estimated_minutes", minutes))
		}
	}

	s.metrics.RecordAutoAssign(len(created), skipped)
	s.logger.Info("auto-assign completed",
		zap.String("worker_id", workerID),
		zap.String("week_start", domain.DateKey(days[0])),
		zap.Int("assigned", len(created)),
		zap.Int("skipped", skipped))

	ticketIDs := make([]string, 0, len(created))
	for _, a := range created {
		ticketIDs = append(ticketIDs, a.TicketID)
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:        s.newID(),
		Type:      events.EventAutoAssignCompleted,
		WorkerID:  workerID,
		Timestamp: now,
		Payload: events.AutoAssignCompletedPayload{
			WeekStart: domain.DateKey(days[0]),
			Assigned:  len(created),
			TicketIDs: ticketIDs,
		},
	})
	return created, nil
}

// Assign schedules a ticket by hand. The worker must serve the ticket's
// category and have availability on the date, whatever is already planned.
func (s *AssignmentService) Assign(ctx context.Context, ticketID, workerID string, date time.Time, assignedBy *string) (*domain.ScheduleAssignment, error) {
	if err := requireIDs(map[string]string{"ticket_id": ticketID, "worker_id": workerID}); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	day := domain.StartOfDay(date)
	details := map[string]any{"ticket_id": ticketID, "worker_id": workerID, "date": domain.DateKey(day)}

	if domain.DateKey(day) < domain.DateKey(now) {
		return nil, apperrors.NewDateInPast(domain.DateKey(day))
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, translateLookup(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	if s.access != nil {
		allowed, err := s.access.CanAccessCategory(ctx, workerID, ticket.Category.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !allowed {
			details["category_id"] = ticket.Category.ID
			return nil, apperrors.NewCategoryAccessDenied(details)
		}
	}

	available, err := s.availability.IsAvailableOn(ctx, workerID, day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !available {
		return nil, apperrors.NewWorkerUnavailable(details)
	}

	exists, err := s.assignments.Exists(ctx, workerID, ticketID, day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewAlreadyScheduled(details)
	}

	assignment := s.newAssignment(*ticket, workerID, day, now, assignedBy, false)
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewAlreadyScheduled(details)
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordManualAssignment()
	s.logger.Info("ticket scheduled",
		zap.String("ticket_id", ticketID),
		zap.String("worker_id", workerID),
		zap.String("date", domain.DateKey(day)))
	s.publishScheduled(ctx, events.EventTicketScheduled, assignment, now)
	return &assignment, nil
}

// Remove deletes the assignment for the (ticket, worker, date) triple.
func (s *AssignmentService) Remove(ctx context.Context, ticketID, workerID string, date time.Time) error {
	if err := requireIDs(map[string]string{"ticket_id": ticketID, "worker_id": workerID}); err != nil {
		return err
	}
	now := s.clock.Now()
	day := domain.StartOfDay(date)

	if err := s.assignments.Delete(ctx, workerID, ticketID, day); err != nil {
		if isNotFound(err) {
			return apperrors.NewAssignmentNotFound(map[string]any{
				"ticket_id": ticketID,
				"worker_id": workerID,
				"date":      domain.DateKey(day),
			})
		}
		return apperrors.MapError(err)
	}

	s.logger.Info("ticket unscheduled",
		zap.String("ticket_id", ticketID),
		zap.String("worker_id", workerID),
		zap.String("date", domain.DateKey(day)))
	s.publishScheduled(ctx, events.EventTicketUnscheduled, domain.ScheduleAssignment{
		WorkerID:      workerID,
		TicketID:      ticketID,
		ScheduledDate: day,
	}, now)
	return nil
}

// ListSchedule returns the worker's assignments for the seven days from weekStart.
func (s *AssignmentService) ListSchedule(ctx context.Context, workerID string, weekStart time.Time) ([]domain.ScheduleAssignment, error) {
	if strings.TrimSpace(workerID) == "" {
		return nil, apperrors.NewInvalidArgument("worker_id")
	}
	assignments, err := s.assignments.ListByWorker(ctx, workerID, domain.StartOfDay(weekStart), domain.WeekEnd(weekStart))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assignments, nil
}

func (s *AssignmentService) newAssignment(ticket domain.Ticket, workerID string, day, now time.Time, assignedBy *string, auto bool) domain.ScheduleAssignment {
	a := domain.ScheduleAssignment{
		ID:             s.newID(),
		WorkerID:       workerID,
		TicketID:       ticket.ID,
		ScheduledDate:  domain.StartOfDay(day),
		AssignedAt:     now,
		AssignedBy:     assignedBy,
		IsAutoAssigned: auto,
	}
	if ticket.Priority != "" {
		priority := ticket.Priority
		a.Priority = &priority
	}
	return a
}

func (s *AssignmentService) publishScheduled(ctx context.Context, eventType events.EventType, a domain.ScheduleAssignment, at time.Time) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:        s.newID(),
		Type:      eventType,
		TicketID:  a.TicketID,
		WorkerID:  a.WorkerID,
		Timestamp: at,
		Payload: events.TicketScheduledPayload{
			ScheduledDate:  domain.DateKey(a.ScheduledDate),
			IsAutoAssigned: a.IsAutoAssigned,
			AssignedBy:     a.AssignedBy,
		},
	})
}
