// Package clock provides an injectable time source.
//
// Services take a Clock instead of calling time.Now so that every operation
// reads "now" exactly once from a source tests can control:
//
//	svc := service.NewWorkSessionService(deps) // deps.Clock = clock.Real(loc)
//
//	c := clock.Fake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
//	c.Advance(45 * time.Minute)
package clock

import (
	"sync"
	"time"
)

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

// Real returns the wall clock in loc. A nil loc means time.Local.
func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FakeClock is a deterministic Clock. Time stands still until Set or Advance
// is called. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// Fake returns a FakeClock initialised to initial.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set jumps the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
