package remittancetest

import (
	"sync"
	"time"

	"github.com/allbabel/remittance"
)

// Clock is a remittance.Clock implementation that returns a time set by
// the test. It is safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

var _ remittance.Clock = (*Clock)(nil)

// NewClock returns a clock that is set to given time.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the currently set time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set changes the current time.
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Advance moves the clock forward by given duration.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
