package service_test

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

func TestNotificationService_LogsClosedTicketAndStubs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	svc := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "desk@example.com",
		WebhookURL: "https://hooks.example.com/desk",
	})
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketClosed,
		TicketID: "t1",
		WorkerID: "w1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("TicketClosed").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendEmailNotificationStub").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendWebhookNotificationStub").Len())
}

func TestNotificationService_SkipsUnconfiguredChannels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	svc := service.NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{})
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketScheduled,
		TicketID: "t1",
		WorkerID: "w1",
	}))

	assert.Equal(t, 1, logs.FilterMessage(string(events.EventTicketScheduled)).Len())
	assert.Zero(t, logs.FilterMessage("sendEmailNotificationStub").Len())
}
