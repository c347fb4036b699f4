package availability

import (
	"fmt"
	"time"
)

const (
	SlotDuration = 30 * time.Minute

	dayKeyLayout = "2006-01-02"
)

// CalendarDay identifies a day on the wall calendar independent of any instant.
type CalendarDay struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day t falls on when observed in loc.
func DayOf(t time.Time, loc *time.Location) CalendarDay {
	y, m, d := t.In(loc).Date()
	return CalendarDay{Year: y, Month: m, Day: d}
}

// ParseCalendarDay parses a "YYYY-MM-DD" day key.
func ParseCalendarDay(s string) (CalendarDay, error) {
	t, err := time.Parse(dayKeyLayout, s)
	if err != nil {
		return CalendarDay{}, fmt.Errorf("parse calendar day %q: %w", s, err)
	}
	return DayOf(t, time.UTC), nil
}

// AddDays moves n days along the calendar; month and year overflow are normalized.
func (d CalendarDay) AddDays(n int) CalendarDay {
	t := time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC)
	return DayOf(t, time.UTC)
}

// Midnight is the first instant of the day in loc.
func (d CalendarDay) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At combines the day with a wall-clock hour and minute in loc.
func (d CalendarDay) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

func (d CalendarDay) Weekday() time.Weekday {
	return d.Midnight(time.UTC).Weekday()
}

func (d CalendarDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// SlotKey renders the time of day of t as "H:mm".
func SlotKey(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
