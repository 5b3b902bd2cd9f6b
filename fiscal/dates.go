package fiscal

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// CIVIL DATES - Calendar days without a time component
// =============================================================================
//
// Every date handled by this package is a civil date: the year, month and day
// as read on a wall calendar. Dates are carried as time.Time values fixed at
// midnight UTC so that arithmetic never crosses a DST boundary and equality
// is plain ==. Truncate converts an arbitrary instant to its civil date in the
// instant's own location, which is how "today" in the local calendar becomes
// a lookup key.

// DateLayout is the YYYY-MM-DD layout used for keys and wire values.
const DateLayout = "2006-01-02"

// NewDate returns the civil date year-month-day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time of day from t, keeping the calendar day t falls on
// in its own location.
func Truncate(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current civil date in the local calendar.
func Today() time.Time {
	return Truncate(time.Now())
}

// DateKey formats a date as the YYYY-MM-DD key used by the week index.
func DateKey(t time.Time) string {
	return Truncate(t).Format(DateLayout)
}

// ParseDate parses a date-like string. Only the leading YYYY-MM-DD part is
// read, so "2025-02-01", "2025-02-01T00:00:00Z" and "2025-02-01 00:00:00"
// all produce the same civil date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a civil date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(0, 0, n)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of days from one civil date to another.
// It is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int((Truncate(to).Unix() - Truncate(from).Unix()) / secondsPerDay)
}

// InRange reports whether d lies in [start, end], comparing civil dates.
func InRange(d, start, end time.Time) bool {
	d, start, end = Truncate(d), Truncate(start), Truncate(end)
	return !d.Before(start) && !d.After(end)
}

// OrderDates returns a and b as (earlier, later).
func OrderDates(a, b time.Time) (time.Time, time.Time) {
	a, b = Truncate(a), Truncate(b)
	if b.Before(a) {
		return b, a
	}
	return a, b
}

// WeekStart returns the most recent date on or before d whose weekday is
// anchor. The walk back is at most six days.
func WeekStart(d time.Time, anchor time.Weekday) time.Time {
	diff := (int(d.Weekday()) - int(anchor) + 7) % 7
	return AddDays(d, -diff)
}
