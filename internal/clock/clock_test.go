package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := Fake(start)

	assert.Equal(t, start, c.Now())
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	later := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestReal_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := Real(loc).Now()
	assert.Equal(t, loc, now.Location())
}
