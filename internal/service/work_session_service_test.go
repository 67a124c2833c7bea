package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/service"
	"github.com/spec-kit/helpdesk-core/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

var nineAM = testutil.Monday.Add(9 * time.Hour)

func newWorkEnv(t *testing.T) (*testutil.Env, *[]events.EventType) {
	t.Helper()
	env := testutil.NewEnv(nineAM)
	env.Store.PutTicket(testutil.NewTestTicket("t1", testutil.NewTestCategory("network", 30)))

	var mu sync.Mutex
	var seen []events.EventType
	record := func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
		return nil
	}
	for _, et := range []events.EventType{
		events.EventWorkStarted, events.EventWorkStopped, events.EventTimeRegistered,
		events.EventTicketStatusChanged, events.EventTicketClosed,
	} {
		env.Dispatcher.Subscribe(et, record)
	}
	return env, &seen
}

func getTicket(t *testing.T, env *testutil.Env, id string) *domain.Ticket {
	t.Helper()
	ticket, err := env.Tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func TestStartWork_OpensSessionAndMovesTicketInProgress(t *testing.T) {
	env, seen := newWorkEnv(t)
	ctx := context.Background()

	session, err := env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	assert.True(t, session.Active())
	assert.Equal(t, nineAM, session.StartedAt)

	ticket := getTicket(t, env, "t1")
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.UpdatedAt)
	assert.Equal(t, nineAM, *ticket.UpdatedAt)
	assert.Equal(t, []events.EventType{events.EventTicketStatusChanged, events.EventWorkStarted}, *seen)
	assert.Equal(t, int64(1), env.Metrics.Snapshot().WorkSessionsStarted)
}

func TestStartWork_TwiceFailsWithActiveWorkExists(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)

	_, err = env.Work.StartWork(ctx, "t1", "w1")
	assert.ErrorIs(t, err, apperrors.ErrActiveWorkExists)

	_, err = env.Work.StartWork(ctx, "t1", "w2")
	assert.NoError(t, err, "another worker may work the same ticket")

	active, err := env.Sessions.ListActiveByTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestStartWork_ConcurrentCallsAdmitOneSession(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Work.StartWork(ctx, "t1", "w1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrActiveWorkExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestStartWork_Rejections(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()
	closedAt := nineAM.Add(-time.Hour)
	env.Store.PutTicket(testutil.NewTestTicket("done", testutil.NewTestCategory("network", 30), testutil.WithClosedAt(closedAt, "w9")))

	_, err := env.Work.StartWork(ctx, " ", "w1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = env.Work.StartWork(ctx, "missing", "w1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.Work.StartWork(ctx, "done", "w1")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClosed)
}

func TestStopWork_DerivesRoundedDurationAndRevertsStatus(t *testing.T) {
	env, seen := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	env.Clock.Advance(44*time.Minute + 40*time.Second)

	session, err := env.Work.StopWork(ctx, "t1", "w1", nil)
	require.NoError(t, err)
	require.NotNil(t, session.DurationMinutes)
	assert.Equal(t, 45, *session.DurationMinutes)
	assert.False(t, session.Active())

	assert.Equal(t, domain.TicketStatusAwaitingResponse, getTicket(t, env, "t1").Status)
	assert.Contains(t, *seen, events.EventWorkStopped)
}

func TestStopWork_KeepsInProgressWhileOthersWork(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	_, err = env.Work.StartWork(ctx, "t1", "w2")
	require.NoError(t, err)
	env.Clock.Advance(10 * time.Minute)

	_, err = env.Work.StopWork(ctx, "t1", "w1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, getTicket(t, env, "t1").Status)

	_, err = env.Work.StopWork(ctx, "t1", "w2", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAwaitingResponse, getTicket(t, env, "t1").Status)
}

func TestStopWork_OverrideAndMissingSession(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.StopWork(ctx, "t1", "w1", nil)
	assert.ErrorIs(t, err, apperrors.ErrWorkNotFound)

	_, err = env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	env.Clock.Advance(5 * time.Minute)

	negative := -1
	_, err = env.Work.StopWork(ctx, "t1", "w1", &negative)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeEntry)

	override := 90
	session, err := env.Work.StopWork(ctx, "t1", "w1", &override)
	require.NoError(t, err)
	assert.Equal(t, 90, *session.DurationMinutes)

	_, err = env.Work.StopWork(ctx, "t1", "w1", nil)
	assert.ErrorIs(t, err, apperrors.ErrWorkNotFound)
}

func TestRegisterManualTimeEntry(t *testing.T) {
	env, seen := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.RegisterManualTimeEntry(ctx, "t1", "w1", 0, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeEntry)
	_, err = env.Work.RegisterManualTimeEntry(ctx, "t1", "w1", -5, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeEntry)

	session, err := env.Work.RegisterManualTimeEntry(ctx, "t1", "w1", 30, true)
	require.NoError(t, err)
	assert.Equal(t, nineAM.Add(-30*time.Minute), session.StartedAt)
	require.NotNil(t, session.EndedAt)
	assert.Equal(t, nineAM, *session.EndedAt)
	assert.Equal(t, 30, *session.DurationMinutes)
	assert.True(t, session.IsPhoneCall)

	ticket := getTicket(t, env, "t1")
	assert.Equal(t, domain.TicketStatusAwaitingResponse, ticket.Status)
	assert.Nil(t, ticket.UpdatedAt)
	assert.Equal(t, []events.EventType{events.EventTimeRegistered}, *seen)

	_, err = env.Work.StartWork(ctx, "t1", "w1")
	assert.NoError(t, err, "a manual entry is never active")
}

func TestChangeStatus(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.ChangeStatus(ctx, "t1", domain.TicketStatus("escalated"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = env.Work.ChangeStatus(ctx, "t1", domain.TicketStatusClosed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	ticket, err := env.Work.ChangeStatus(ctx, "t1", domain.TicketStatusAwaitingResponse)
	require.NoError(t, err)
	assert.Nil(t, ticket.UpdatedAt, "no-op leaves the update timestamp alone")

	env.Clock.Advance(time.Minute)
	ticket, err = env.Work.ChangeStatus(ctx, "t1", domain.TicketStatusAwaitingCustomer)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAwaitingCustomer, ticket.Status)
	require.NotNil(t, ticket.UpdatedAt)
	assert.Equal(t, nineAM.Add(time.Minute), *ticket.UpdatedAt)

	_, err = env.Work.Close(ctx, "t1", "w1", nil)
	require.NoError(t, err)
	_, err = env.Work.ChangeStatus(ctx, "t1", domain.TicketStatusInProgress)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClosed)
}

func TestClose_RefusesWhileAnySessionIsActive(t *testing.T) {
	env, seen := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.StartWork(ctx, "t1", "w2")
	require.NoError(t, err)

	_, err = env.Work.Close(ctx, "t1", "w1", nil)
	require.ErrorIs(t, err, apperrors.ErrActiveSessionsRemain)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, []string{"w2"}, de.Details["worker_ids"])
	assert.NotEqual(t, domain.TicketStatusClosed, getTicket(t, env, "t1").Status)

	env.Clock.Advance(20 * time.Minute)
	_, err = env.Work.StopWork(ctx, "t1", "w2", nil)
	require.NoError(t, err)

	closedAt := nineAM.Add(15 * time.Minute)
	ticket, err := env.Work.Close(ctx, "t1", "w1", &closedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	assert.Equal(t, closedAt, *ticket.ClosedAt)
	assert.Equal(t, "w1", *ticket.ClosedBy)
	assert.Equal(t, nineAM.Add(20*time.Minute), *ticket.UpdatedAt)
	assert.Contains(t, *seen, events.EventTicketClosed)

	_, err = env.Work.Close(ctx, "t1", "w1", nil)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClosed)
}

func TestListSessions_InStartOrder(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()

	_, err := env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	env.Clock.Advance(time.Minute)
	_, err = env.Work.RegisterManualTimeEntry(ctx, "t1", "w2", 30, false)
	require.NoError(t, err)

	sessions, err := env.Work.ListSessions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "w2", sessions[0].WorkerID, "manual entry started 29 minutes before the live session")
	assert.Equal(t, "w1", sessions[1].WorkerID)

	_, err = env.Work.ListSessions(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func failingTicketUpdates(env *testutil.Env, err error) *service.WorkSessionService {
	return service.NewWorkSessionService(service.WorkSessionDependencies{
		TicketRepo:  env.Tickets,
		SessionRepo: env.Sessions,
		UnitOfWork:  &testutil.FailTicketUpdateUoW{Inner: env.UnitOfWork, Err: err},
		Clock:       env.Clock,
		IDGenerator: testutil.SequentialIDs("tx"),
	})
}

func TestStartWork_RollsBackSessionWhenTicketUpdateFails(t *testing.T) {
	env, seen := newWorkEnv(t)
	ctx := context.Background()
	dbDown := errors.New("connection reset")

	_, err := failingTicketUpdates(env, dbDown).StartWork(ctx, "t1", "w1")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbDown)
	assert.Equal(t, apperrors.CodeInternal, apperrors.ToDomainError(err).Code)

	_, err = env.Sessions.GetActive(ctx, "t1", "w1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, domain.TicketStatusAwaitingResponse, getTicket(t, env, "t1").Status)
	assert.Empty(t, *seen)

	_, err = env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, getTicket(t, env, "t1").Status)
}

func TestStopWork_RollsBackEndWhenTicketUpdateFails(t *testing.T) {
	env, _ := newWorkEnv(t)
	ctx := context.Background()
	dbDown := errors.New("connection reset")

	_, err := env.Work.StartWork(ctx, "t1", "w1")
	require.NoError(t, err)
	env.Clock.Advance(20 * time.Minute)

	_, err = failingTicketUpdates(env, dbDown).StopWork(ctx, "t1", "w1", nil)
	assert.ErrorIs(t, err, dbDown)

	active, err := env.Sessions.GetActive(ctx, "t1", "w1")
	require.NoError(t, err)
	assert.Nil(t, active.DurationMinutes)
	assert.Equal(t, domain.TicketStatusInProgress, getTicket(t, env, "t1").Status)

	session, err := env.Work.StopWork(ctx, "t1", "w1", nil)
	require.NoError(t, err)
	assert.Equal(t, 20, *session.DurationMinutes)
}
