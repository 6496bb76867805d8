// Package clock abstracts wall-clock time so overlay registration times can
// be controlled in tests.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time in UTC.
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FakeClock implements Clock with a manually controlled time.
// When step is non-zero every call to Now advances the time by step,
// which gives successive registrations distinct, ordered timestamps.
type FakeClock struct {
	current time.Time
	step    time.Duration
}

// NewFakeClock creates a FakeClock frozen at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// NewSteppingClock creates a FakeClock that starts at t and moves forward
// by step after each call to Now.
func NewSteppingClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{current: t, step: step}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Set replaces the current fake time.
func (c *FakeClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
