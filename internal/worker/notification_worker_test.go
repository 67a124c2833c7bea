package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

func TestStartNotificationWorker_SubscribesSchedulingEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, config.NotificationConfig{})

	require.True(t, StartNotificationWorker(notifications, logger))

	started := logs.FilterMessage("notification worker started").All()
	require.Len(t, started, 1)
	assert.Contains(t, started[0].ContextMap()["event_types"], "auto_assign_completed")

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventAutoAssignCompleted,
		WorkerID: "w1",
	}))
	assert.Equal(t, 1, logs.FilterMessage("AutoAssignCompleted").Len())
}

func TestStartNotificationWorker_NothingToStart(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	assert.False(t, StartNotificationWorker(nil, logger))
	assert.False(t, StartNotificationWorker(service.NewNotificationService(nil, logger, config.NotificationConfig{}), logger))
	assert.Equal(t, 1, logs.FilterMessage("notification worker has no dispatcher; events are not delivered").Len())
}
