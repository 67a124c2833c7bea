package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to work-session and scheduling events and
// returns the event types it listens on.
func (n *NotificationService) RegisterHandlers() []events.EventType {
	if n.dispatcher == nil {
		return nil
	}
	handlers := []struct {
		eventType events.EventType
		handle    events.EventHandler
	}{
		{events.EventWorkStarted, n.handleWorkEvent},
		{events.EventWorkStopped, n.handleWorkEvent},
		{events.EventTimeRegistered, n.handleWorkEvent},
		{events.EventTicketStatusChanged, n.handleTicketStatusChanged},
		{events.EventTicketClosed, n.handleTicketClosed},
		{events.EventTicketScheduled, n.handleSchedule},
		{events.EventTicketUnscheduled, n.handleSchedule},
		{events.EventAutoAssignCompleted, n.handleAutoAssignCompleted},
	}
	subscribed := make([]events.EventType, 0, len(handlers))
	for _, h := range handlers {
		n.dispatcher.Subscribe(h.eventType, h.handle)
		subscribed = append(subscribed, h.eventType)
	}
	return subscribed
}

func (n *NotificationService) handleWorkEvent(ctx context.Context, event events.Event) error {
	n.logger.Debug(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("worker_id", event.WorkerID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketClosed", zap.String("ticket_id", event.TicketID), zap.String("worker_id", event.WorkerID))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSchedule(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("worker_id", event.WorkerID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAutoAssignCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("AutoAssignCompleted", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("worker_id", event.WorkerID),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("worker_id", event.WorkerID),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
