// Package window restricts GPX points and waypoints to a calendar date and
// an inclusive time-of-day range.
package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfig classifies contradictory filter parameters.
var ErrConfig = errors.New("invalid filter configuration")

// ConfigError reports filter parameters rejected before any processing.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Is matches ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MonthDay formats d as a three-letter month and two-digit day, e.g. Aug20.
func (d Date) MonthDay() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("Jan02")
}

// Clock is a time of day as the offset from midnight.
type Clock time.Duration

// ParseClock parses HH:MM or HH:MM:SS.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time %q (expected HH:MM)", s)
}

// ClockOf returns the wall-clock time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
	return Clock(d)
}

func (c Clock) String() string {
	d := time.Duration(c)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if d%time.Minute == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Window is a date and time-of-day restriction. Zero value keeps everything.
type Window struct {
	Date     *Date
	Start    *Clock
	End      *Clock
	Location *time.Location
}

// New validates the parameters and returns a Window. Start and End must be
// given together and Start must not be after End.
func New(date *Date, start, end *Clock, loc *time.Location) (Window, error) {
	if (start == nil) != (end == nil) {
		return Window{}, &ConfigError{Msg: "--start-time and --end-time must be given together"}
	}
	if start != nil && *start > *end {
		return Window{}, &ConfigError{Msg: fmt.Sprintf("start time %s is after end time %s", *start, *end)}
	}
	if loc == nil {
		loc = time.Local
	}
	return Window{Date: date, Start: start, End: end, Location: loc}, nil
}

// Active reports whether any restriction applies.
func (w Window) Active() bool {
	return w.Date != nil || w.hasClock()
}

func (w Window) hasClock() bool {
	return w.Start != nil && w.End != nil
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.Local
	}
	return w.Location
}

// Contains reports whether a timestamp passes the window. A zero timestamp
// fails only when a date is set; there is nothing to compare otherwise.
func (w Window) Contains(ts time.Time) bool {
	if ts.IsZero() {
		return w.Date == nil
	}
	local := ts.In(w.location())
	if w.Date != nil && DateOf(local) != *w.Date {
		return false
	}
	if w.hasClock() {
		c := ClockOf(local)
		if c < *w.Start || c > *w.End {
			return false
		}
	}
	return true
}

func (w Window) String() string {
	if !w.Active() {
		return "no filter"
	}
	var parts []string
	if w.Date != nil {
		parts = append(parts, "on "+w.Date.String())
	}
	if w.hasClock() {
		parts = append(parts, fmt.Sprintf("between %s and %s", *w.Start, *w.End))
	}
	return strings.Join(parts, " ")
}
