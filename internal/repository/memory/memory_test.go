package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/repository/memory"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func TestWorkSessions_OneActivePerTicketAndWorker(t *testing.T) {
	repo := memory.NewWorkSessionRepository(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &domain.WorkSession{
				ID:        string(rune('a' + i)),
				TicketID:  "t1",
				WorkerID:  "w1",
				StartedAt: day,
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	}
	assert.Equal(t, 1, created)

	active, err := repo.GetActive(ctx, "t1", "w1")
	require.NoError(t, err)
	end := day.Add(time.Minute)
	active.EndedAt = &end
	require.NoError(t, repo.End(ctx, active))
	assert.ErrorIs(t, repo.End(ctx, active), repository.ErrNotFound)

	_, err = repo.GetActive(ctx, "t1", "w1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, repo.Create(ctx, &domain.WorkSession{ID: "next", TicketID: "t1", WorkerID: "w1", StartedAt: end}))
}

func TestAssignments_UniqueTriple(t *testing.T) {
	repo := memory.NewAssignmentRepository(memory.NewStore())
	ctx := context.Background()
	a := domain.ScheduleAssignment{ID: "a1", WorkerID: "w1", TicketID: "t1", ScheduledDate: day}

	require.NoError(t, repo.Create(ctx, &a))
	dup := a
	dup.ID = "a2"
	dup.ScheduledDate = day.Add(10 * time.Hour)
	assert.ErrorIs(t, repo.Create(ctx, &dup), repository.ErrDuplicate)

	next := a
	next.ID = "a3"
	next.ScheduledDate = day.AddDate(0, 0, 1)
	require.NoError(t, repo.Create(ctx, &next))

	exists, err := repo.Exists(ctx, "w1", "t1", day)
	require.NoError(t, err)
	assert.True(t, exists)

	list, err := repo.ListByWorker(ctx, "w1", day, day.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].ID)

	require.NoError(t, repo.Delete(ctx, "w1", "t1", day))
	assert.ErrorIs(t, repo.Delete(ctx, "w1", "t1", day), repository.ErrNotFound)
}

func TestTickets_BacklogOrderAndFilters(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewTicketRepository(store)
	ctx := context.Background()
	closedAt := day
	tickets := []domain.Ticket{
		{ID: "b", Category: domain.CategorySnapshot{ID: "net"}, Status: domain.TicketStatusInProgress, Priority: domain.TicketPriorityHigh, CreatedAt: day},
		{ID: "a", Category: domain.CategorySnapshot{ID: "net"}, Status: domain.TicketStatusAwaitingResponse, Priority: domain.TicketPriorityLow, CreatedAt: day},
		{ID: "c", Category: domain.CategorySnapshot{ID: "print"}, Status: domain.TicketStatusAwaitingCustomer, Priority: domain.TicketPriorityLow, CreatedAt: day.Add(-time.Hour)},
		{ID: "d", Category: domain.CategorySnapshot{ID: "net"}, Status: domain.TicketStatusClosed, CreatedAt: day.Add(-2 * time.Hour), ClosedAt: &closedAt},
	}
	for i := range tickets {
		require.NoError(t, repo.Create(ctx, &tickets[i]))
	}
	assert.ErrorIs(t, repo.Create(ctx, &tickets[0]), repository.ErrDuplicate)

	all, err := repo.ListBacklog(ctx, repository.BacklogFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(all))

	net, err := repo.ListBacklog(ctx, repository.BacklogFilter{CategoryIDs: []string{"net"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(net))

	low, err := repo.ListBacklog(ctx, repository.BacklogFilter{Priorities: []domain.TicketPriority{domain.TicketPriorityLow}, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(low))

	withClosed, err := repo.ListBacklog(ctx, repository.BacklogFilter{Statuses: []domain.TicketStatus{domain.TicketStatusClosed}})
	require.NoError(t, err)
	assert.Empty(t, withClosed)
}

func TestSettings_RecordRunNeedsRow(t *testing.T) {
	repo := memory.NewSettingsRepository(memory.NewStore())
	ctx := context.Background()

	assert.ErrorIs(t, repo.RecordRun(ctx, "m1", day, 3), repository.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &domain.AutoAssignmentSettings{ManagerID: "m1", Enabled: true}))
	require.NoError(t, repo.RecordRun(ctx, "m1", day, 3))
	require.NoError(t, repo.RecordRun(ctx, "m1", day.Add(time.Hour), 2))

	s, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 5, s.TicketsAssigned)
	assert.Equal(t, day.Add(time.Hour), *s.LastRunAt)
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestUnitOfWork_RollsBackOwnWrites(t *testing.T) {
	store := memory.NewStore()
	store.PutTicket(domain.Ticket{ID: "t1", Status: domain.TicketStatusAwaitingResponse, CreatedAt: day})
	uow := memory.NewUnitOfWork(store)
	tickets := memory.NewTicketRepository(store)
	sessions := memory.NewWorkSessionRepository(store)
	ctx := context.Background()
	failure := errors.New("second write failed")

	err := uow.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		require.NoError(t, repos.Sessions.Create(ctx, &domain.WorkSession{ID: "s1", TicketID: "t1", WorkerID: "w1", StartedAt: day}))
		ticket, err := repos.Tickets.GetByID(ctx, "t1")
		require.NoError(t, err)
		ticket.Status = domain.TicketStatusInProgress
		require.NoError(t, repos.Tickets.Update(ctx, ticket))
		return failure
	})
	assert.ErrorIs(t, err, failure)

	_, err = sessions.GetActive(ctx, "t1", "w1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	ticket, err := tickets.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAwaitingResponse, ticket.Status)
}

func TestUnitOfWork_KeepsWritesOnSuccess(t *testing.T) {
	store := memory.NewStore()
	uow := memory.NewUnitOfWork(store)
	ctx := context.Background()

	err := uow.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Sessions.Create(ctx, &domain.WorkSession{ID: "s1", TicketID: "t1", WorkerID: "w1", StartedAt: day})
	})
	require.NoError(t, err)

	active, err := memory.NewWorkSessionRepository(store).GetActive(ctx, "t1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "s1", active.ID)
}
