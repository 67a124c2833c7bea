package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/testutil"
)

func TestWorkload_ComparesPlannedAndSpent(t *testing.T) {
	env := newSchedulingEnv(t, 60, 60)
	ctx := context.Background()
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "09:00", "17:00"))
	env.Store.AddSlot(testutil.Slot("w1", tuesday, "09:00", "17:00"))

	_, err := env.Scheduler.Assign(ctx, "t1", "w1", testutil.Monday, nil)
	require.NoError(t, err)
	_, err = env.Scheduler.Assign(ctx, "t2", "w1", tuesday, nil)
	require.NoError(t, err)

	env.Store.PutSession(testutil.EndedSession("s1", "t1", "w1", testutil.Monday.Add(9*time.Hour), 60))
	env.Store.PutSession(testutil.EndedSession("s-old", "t1", "w1", testutil.Monday.Add(-2*time.Hour), 100))
	env.Store.PutSession(domain.WorkSession{
		ID:        "s2",
		TicketID:  "t2",
		WorkerID:  "w1",
		StartedAt: tuesday.Add(10 * time.Hour),
		CreatedAt: tuesday.Add(10 * time.Hour),
	})
	env.Clock.Set(tuesday.Add(10*time.Hour + 30*time.Minute))

	report, err := env.Reports.Workload(ctx, "w1", testutil.Monday)
	require.NoError(t, err)
	require.Len(t, report.Days, 7)

	mon, tue, wed := report.Days[0], report.Days[1], report.Days[2]
	assert.Equal(t, 60, mon.PlannedMinutes)
	assert.Equal(t, 60, mon.SpentMinutes)
	assert.Equal(t, domain.WorkloadCritical, mon.Level)
	assert.Equal(t, 30, tue.SpentMinutes)
	assert.Equal(t, 0.5, tue.Ratio)
	assert.Equal(t, domain.WorkloadNormal, tue.Level)
	assert.Equal(t, 0.0, wed.Ratio)
	assert.Equal(t, domain.WorkloadLow, wed.Level)

	assert.Equal(t, 120, report.PlannedMinutes)
	assert.Equal(t, 90, report.SpentMinutes)
	assert.Equal(t, 0.75, report.Ratio)
	assert.Equal(t, domain.WorkloadNormal, report.Level)
}

func TestWorkload_EmptyWeek(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)

	report, err := env.Reports.Workload(context.Background(), "w1", testutil.Monday)
	require.NoError(t, err)
	assert.Zero(t, report.PlannedMinutes)
	assert.Equal(t, domain.WorkloadLow, report.Level)
}

func TestEfficiencySummary(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)
	network := testutil.NewTestCategory("network", 30)
	seedClosedTicket(env, "h1", network, 30, "w1", 50, testutil.Monday.AddDate(0, 0, -1))

	summary, err := env.Reports.Efficiency(context.Background(), "w1", network, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.6, summary.Efficiency)
	assert.Equal(t, 50, summary.EstimatedMinutes)

	from := testutil.Monday
	summary, err = env.Reports.Efficiency(context.Background(), "w1", network, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.Efficiency)
	assert.Equal(t, 30, summary.EstimatedMinutes)
}
