package testfixtures

import (
	"sync/atomic"
	"time"
)

var referenceTime = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

// ReferenceTime is the instant every fixture and default clock is anchored to.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a settable time source shared by services under test. It keeps
// the instant as Unix nanoseconds and reports it in the start time's zone,
// so appointment days and dashboard "today" follow that zone.
type Clock struct {
	nanos atomic.Int64
	loc   *time.Location
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	c := &Clock{loc: start.Location()}
	c.nanos.Store(start.UnixNano())
	return c
}

func (c *Clock) Now() time.Time {
	return time.Unix(0, c.nanos.Load()).In(c.loc)
}

// NowFunc returns Now for injection; a nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set jumps to t. The clock keeps its original zone.
func (c *Clock) Set(t time.Time) {
	c.nanos.Store(t.UnixNano())
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	return time.Unix(0, c.nanos.Add(int64(d))).In(c.loc)
}

// AdvanceDays moves the clock by whole calendar days in its zone, keeping the
// wall-clock time across DST changes.
func (c *Clock) AdvanceDays(days int) time.Time {
	next := c.Now().AddDate(0, 0, days)
	c.Set(next)
	return next
}

// Today is midnight of the current day in the clock's zone.
func (c *Clock) Today() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}
