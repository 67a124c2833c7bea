package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/service"
)

// StartNotificationWorker subscribes the notification service to work-session
// and scheduling events. It returns false when there is nothing to start.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) bool {
	if notifications == nil {
		return false
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	subscribed := notifications.RegisterHandlers()
	if len(subscribed) == 0 {
		logger.Warn("notification worker has no dispatcher; events are not delivered")
		return false
	}
	names := make([]string, 0, len(subscribed))
	for _, eventType := range subscribed {
		names = append(names, string(eventType))
	}
	logger.Info("notification worker started", zap.Strings("event_types", names))
	return true
}
