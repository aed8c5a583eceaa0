// Package clock implements the Working-Hours Clock: deterministic
// arithmetic over a daily shift window, 7 days a week.
package clock

import "time"

// Clock is configured with a daily shift window. All instants it
// receives and returns are UTC.
type Clock struct {
	shiftStartHour, shiftStartMin int
	shiftEndHour, shiftEndMin     int
	minutesPerDay                 int
}

// Default shift window: 08:00-16:00, 480 minutes/day, matching the
// single production line this engine schedules.
const (
	DefaultShiftStartHour = 8
	DefaultShiftEndHour   = 16
)

// New builds a Clock from an hour:minute shift window. end must be
// strictly after start within the same day.
func New(startHour, startMin, endHour, endMin int) *Clock {
	startTotal := startHour*60 + startMin
	endTotal := endHour*60 + endMin
	return &Clock{
		shiftStartHour: startHour,
		shiftStartMin:  startMin,
		shiftEndHour:   endHour,
		shiftEndMin:    endMin,
		minutesPerDay:  endTotal - startTotal,
	}
}

// NewDefault builds the Clock with the 08:00-16:00 shift window.
func NewDefault() *Clock {
	return New(DefaultShiftStartHour, 0, DefaultShiftEndHour, 0)
}

func (c *Clock) shiftStartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.shiftStartHour, c.shiftStartMin, 0, 0, time.UTC)
}

func (c *Clock) minutesSinceShiftStart(t time.Time) int {
	start := c.shiftStartOfDay(t)
	return int(t.Sub(start).Minutes())
}

// CeilToShift snaps t forward to the nearest in-shift instant. Identity
// if t already lies within the shift window.
func (c *Clock) CeilToShift(t time.Time) time.Time {
	t = t.UTC()
	elapsed := c.minutesSinceShiftStart(t)
	if elapsed < 0 {
		return c.shiftStartOfDay(t)
	}
	if elapsed >= c.minutesPerDay {
		next := t.AddDate(0, 0, 1)
		return c.shiftStartOfDay(next)
	}
	return t
}

// AddWorkingMinutes advances t by m minutes of working time. If t lies
// outside the shift window, the start is first advanced to the next
// shift-open boundary. Minutes never run past a day's shift-close;
// remaining minutes continue at the next shift-open.
func (c *Clock) AddWorkingMinutes(t time.Time, m int) time.Time {
	current := c.CeilToShift(t)
	remaining := m
	for remaining > 0 {
		elapsedToday := c.minutesSinceShiftStart(current)
		leftInShift := c.minutesPerDay - elapsedToday
		if remaining <= leftInShift {
			current = current.Add(time.Duration(remaining) * time.Minute)
			remaining = 0
		} else {
			remaining -= leftInShift
			current = c.shiftStartOfDay(current.AddDate(0, 0, 1))
		}
	}
	return current
}

// WorkingMinutesBetween returns the signed count of working minutes
// between a and b: positive when b is after a, negative when b precedes
// a. The magnitude is computed by walking working time forward from the
// earlier instant to the later one.
func (c *Clock) WorkingMinutesBetween(a, b time.Time) int {
	if !b.Before(a) {
		return c.forwardWorkingMinutes(a, b)
	}
	return -c.forwardWorkingMinutes(b, a)
}

// forwardWorkingMinutes counts working minutes from a to b where
// b is not before a, by walking day-by-day through the shift window.
func (c *Clock) forwardWorkingMinutes(a, b time.Time) int {
	a = c.CeilToShift(a)
	b = c.CeilToShift(b)
	if !b.After(a) {
		return 0
	}

	total := 0
	current := a
	for {
		dayEnd := c.shiftStartOfDay(current).Add(time.Duration(c.minutesPerDay) * time.Minute)
		if !b.After(dayEnd) {
			total += int(b.Sub(current).Minutes())
			return total
		}
		total += int(dayEnd.Sub(current).Minutes())
		current = c.shiftStartOfDay(current.AddDate(0, 0, 1))
	}
}
