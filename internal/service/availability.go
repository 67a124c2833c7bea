package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// AvailabilityAggregator condenses availability slots into minutes per day.
type AvailabilityAggregator struct {
	slots AvailabilitySource
}

// NewAvailabilityAggregator creates the aggregator.
func NewAvailabilityAggregator(slots AvailabilitySource) *AvailabilityAggregator {
	return &AvailabilityAggregator{slots: slots}
}

// MinutesByDay sums slot minutes per date over the seven days starting at
// weekStart, keyed by domain.DateKey. Days without slots are absent.
func (a *AvailabilityAggregator) MinutesByDay(ctx context.Context, workerID string, weekStart time.Time) (map[string]int, error) {
	days := domain.WeekDays(weekStart)
	inWeek := make(map[string]struct{}, len(days))
	for _, d := range days {
		inWeek[domain.DateKey(d)] = struct{}{}
	}

	slots, err := a.slots.ListSlots(ctx, workerID, days[0], days[len(days)-1])
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	minutes := make(map[string]int)
	for _, slot := range slots {
		key := domain.DateKey(slot.Date)
		if _, ok := inWeek[key]; !ok {
			continue
		}
		minutes[key] += slot.Minutes()
	}
	return minutes, nil
}

// IsAvailableOn reports whether the worker has any slot on the date,
// regardless of how much of it is already planned.
func (a *AvailabilityAggregator) IsAvailableOn(ctx context.Context, workerID string, date time.Time) (bool, error) {
	ok, err := a.slots.HasSlotOn(ctx, workerID, domain.StartOfDay(date))
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return ok, nil
}
