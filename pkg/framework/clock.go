package framework

import (
	"sync"
	"time"
)

// Clock abstracts time for components with timing contracts, so the
// arming and cadence logic can be tested against a manual clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// ManualClock is a Clock for tests: Sleep advances virtual time
// immediately instead of blocking.
type ManualClock struct {
	lock sync.Mutex
	now  time.Time
}

// NewManualClock creates a ManualClock at an arbitrary fixed origin.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Sleep implements Clock by advancing virtual time.
func (c *ManualClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// Advance moves virtual time forward.
func (c *ManualClock) Advance(d time.Duration) {
	c.lock.Lock()
	c.now = c.now.Add(d)
	c.lock.Unlock()
}
