package domain

import (
	"errors"
	"math"
	"time"
)

// ErrSessionEnded is returned when ending a session that already ended.
var ErrSessionEnded = errors.New("work session already ended")

// ErrEndBeforeStart is returned when the end timestamp precedes the start.
var ErrEndBeforeStart = errors.New("work session end precedes start")

// WorkSession is one interval a worker spent on a ticket. A session without
// an end timestamp is active.
type WorkSession struct {
	ID              string
	TicketID        string
	WorkerID        string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int
	IsPhoneCall     bool
	CreatedAt       time.Time
}

// Active reports whether the session is still open.
func (s *WorkSession) Active() bool {
	return s.EndedAt == nil
}

// End closes the session. The duration is derived from the interval unless
// override is non-nil.
func (s *WorkSession) End(at time.Time, override *int) error {
	if s.EndedAt != nil {
		return ErrSessionEnded
	}
	if at.Before(s.StartedAt) {
		return ErrEndBeforeStart
	}
	minutes := ElapsedMinutes(s.StartedAt, at)
	if override != nil {
		minutes = *override
	}
	s.EndedAt = &at
	s.DurationMinutes = &minutes
	return nil
}

// Minutes returns the recorded duration, deriving it from the interval when
// none was stored. Active sessions count up to now.
func (s *WorkSession) Minutes(now time.Time) int {
	if s.DurationMinutes != nil {
		return *s.DurationMinutes
	}
	if s.EndedAt != nil {
		return ElapsedMinutes(s.StartedAt, *s.EndedAt)
	}
	return ElapsedMinutes(s.StartedAt, now)
}

// ElapsedMinutes rounds the interval to whole minutes, never below zero.
func ElapsedMinutes(start, end time.Time) int {
	minutes := int(math.Round(end.Sub(start).Seconds() / 60))
	if minutes < 0 {
		return 0
	}
	return minutes
}
