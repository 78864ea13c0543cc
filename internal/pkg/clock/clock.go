// Package clock resolves "today" in the configured game timezone.
package clock

import "time"

// Clock reports the current instant and calendar day in a fixed location.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// New creates a Clock backed by time.Now in the given location.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{now: time.Now, loc: loc}
}

// Fixed creates a Clock that always reports t. Used in tests.
func Fixed(t time.Time, loc *time.Location) *Clock {
	return Func(func() time.Time { return t }, loc)
}

// Func creates a Clock that asks now for the current instant.
func Func(now func() time.Time, loc *time.Location) *Clock {
	c := New(loc)
	c.now = now
	return c
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Today returns the current calendar day.
func (c *Clock) Today() time.Time {
	return Day(c.now(), c.loc)
}

// Location returns the clock's timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Day truncates t to its calendar day in loc, expressed as midnight UTC so
// it round-trips through a DATE column unchanged.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a calendar day by n days.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
