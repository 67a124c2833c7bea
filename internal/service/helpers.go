package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/events"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util/errorutil"
)

// requireIDs rejects blank identifiers, reporting the first one by field name.
func requireIDs(ids map[string]string) error {
	fields := make([]string, 0, len(ids))
	for field := range ids {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if strings.TrimSpace(ids[field]) == "" {
			return apperrors.NewInvalidArgument(field)
		}
	}
	return nil
}

// publishEvent hands the event to the dispatcher. Handler failures are
// logged and never fail the operation that raised the event.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
