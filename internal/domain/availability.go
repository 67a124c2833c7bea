package domain

import (
	"fmt"
	"time"
)

// ClockTime is a time of day expressed in minutes since midnight.
type ClockTime int

// ParseClockTime parses an "HH:MM" value.
func ParseClockTime(value string) (ClockTime, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return ClockTime(parsed.Hour()*60 + parsed.Minute()), nil
}

// String renders the clock time as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// AvailabilitySlot is a window during which a worker is reachable on a date.
type AvailabilitySlot struct {
	ID       string
	WorkerID string
	Date     time.Time
	Start    ClockTime
	End      ClockTime
}

// Minutes returns the slot length, zero for inverted windows.
func (s AvailabilitySlot) Minutes() int {
	if s.End <= s.Start {
		return 0
	}
	return int(s.End - s.Start)
}
