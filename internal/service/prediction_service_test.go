package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

func TestPredict_DividesAvailabilityByAverageDuration(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)
	env.Store.PutCategory(testutil.NewTestCategory("network", 40))
	env.Store.PutCategory(testutil.NewTestCategory("printers", 20))
	env.Store.PutWorker(testutil.NewTestWorker("w1", testutil.WithCategories("network", "printers")))
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "09:00", "12:00"))
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "13:00", "13:45"))
	env.Store.AddSlot(testutil.Slot("w1", tuesday, "09:00", "09:29"))

	predictions, err := env.Predictions.Predict(context.Background(), "w1", testutil.Monday)
	require.NoError(t, err)
	require.Len(t, predictions, 7)

	assert.Equal(t, testutil.Monday, predictions[0].Date)
	assert.Equal(t, 225, predictions[0].AvailableMinutes)
	assert.Equal(t, 7, predictions[0].PredictedCount)
	assert.Equal(t, 0, predictions[1].PredictedCount, "29 minutes is short of one 30 minute ticket")
	assert.Equal(t, 1.0, predictions[0].Efficiency)
	for i, p := range predictions[2:] {
		assert.Equal(t, testutil.Monday.AddDate(0, 0, i+2), p.Date)
		assert.Zero(t, p.PredictedCount)
	}
}

func TestPredict_FasterWorkerFitsMore(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)
	network := testutil.NewTestCategory("network", 30)
	env.Store.PutCategory(network)
	env.Store.PutWorker(testutil.NewTestWorker("w1", testutil.WithCategories("network")))
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "09:00", "11:00"))
	seedClosedTicket(env, "h1", network, 30, "w1", 15, testutil.Monday.AddDate(0, 0, -3))

	predictions, err := env.Predictions.Predict(context.Background(), "w1", testutil.Monday)
	require.NoError(t, err)
	assert.Equal(t, 2.0, predictions[0].Efficiency)
	assert.Equal(t, 8, predictions[0].PredictedCount)
}

func TestPredict_IgnoresUnknownCategories(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)
	env.Store.PutCategory(testutil.NewTestCategory("network", 60))
	env.Store.PutWorker(testutil.NewTestWorker("w1", testutil.WithCategories("network", "retired")))
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "09:00", "11:00"))

	predictions, err := env.Predictions.Predict(context.Background(), "w1", testutil.Monday)
	require.NoError(t, err)
	assert.Equal(t, 2, predictions[0].PredictedCount)
}

func TestPredict_FallsBackToDefaultDuration(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)
	env.Store.PutWorker(testutil.NewTestWorker("w1", testutil.WithCategories("retired")))
	env.Store.AddSlot(testutil.Slot("w1", testutil.Monday, "09:00", "10:00"))

	predictions, err := env.Predictions.Predict(context.Background(), "w1", testutil.Monday)
	require.NoError(t, err)
	assert.Equal(t, 2, predictions[0].PredictedCount)
	assert.Equal(t, int64(1), env.Metrics.Snapshot().PredictionsServed)
}

func TestPredict_UnknownWorker(t *testing.T) {
	env := testutil.NewEnv(testutil.Monday)

	_, err := env.Predictions.Predict(context.Background(), "ghost", testutil.Monday)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
