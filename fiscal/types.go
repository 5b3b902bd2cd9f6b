/*
Package fiscal derives a navigable fiscal calendar from period boundary rows.

PURPOSE:
  A fiscal calendar is supplied as a sparse list of period rows (year,
  start, end, period number, quarter). Periods have variable lengths and
  the weekday weeks start on is not fixed, so weeks are GENERATED from the
  period boundaries rather than stored. This package turns the rows into a
  fully indexed structure: years -> periods -> weeks -> days.

KEY CONCEPTS IN THIS FILE (types.go):
  - Row:      One period boundary record, the source of truth
  - Period:   A derived period with its first/last generated week numbers
  - Week:     A generated 7-day week, numbered sequentially within a year
  - Year:     Ordered periods and weeks of one fiscal year
  - Calendar: All years plus a date -> week index

DESIGN PRINCIPLES:
  1. Immutability: a Calendar is built once and never patched. A new fetch
     produces a new Calendar.
  2. No back-pointers: periods and weeks reference each other by id/number.
  3. Civil dates: every date is a calendar day (see dates.go).

SEE ALSO:
  - builder.go: Build, the rows -> Calendar derivation
  - lookup.go:  Date, year, quarter and view lookups
  - selection/: The selection engine that consumes a Calendar
*/
package fiscal

import (
	"fmt"
	"time"
)

// =============================================================================
// INPUT
// =============================================================================

// Row is one period boundary record. Year, Period and Quarter must be
// positive and Start/End must be set; Period is unique within a year but is
// not assumed to be contiguous from 1.
type Row struct {
	Year    int
	Start   time.Time
	End     time.Time
	Period  int
	Quarter int
}

// Validate checks the row for missing or inconsistent fields. index is the
// row's position in the input and is carried into the returned *RowError.
func (r Row) Validate(index int) error {
	switch {
	case r.Year <= 0:
		return &RowError{Index: index, Field: "YEAR", Reason: "missing or not positive"}
	case r.Start.IsZero():
		return &RowError{Index: index, Field: "START_DATE", Reason: "missing"}
	case r.End.IsZero():
		return &RowError{Index: index, Field: "END_DATE", Reason: "missing"}
	case r.Period <= 0:
		return &RowError{Index: index, Field: "PERIOD", Reason: "missing or not positive"}
	case r.Quarter <= 0:
		return &RowError{Index: index, Field: "QUARTER", Reason: "missing or not positive"}
	case Truncate(r.End).Before(Truncate(r.Start)):
		return &RowError{Index: index, Field: "END_DATE", Reason: "before START_DATE"}
	}
	return nil
}

// =============================================================================
// DERIVED STRUCTURE
// =============================================================================

// Period is a fiscal period derived from one Row.
type Period struct {
	ID         int    // period number from the row
	Name       string // "P01", "P02", ...
	FiscalYear int
	Quarter    int
	Start      time.Time
	End        time.Time
	Days       int // inclusive day count

	// First and last week numbers generated for this period. Set after week
	// generation, so they are zero only while a year is being built.
	StartWeek int
	EndWeek   int
}

// Contains reports whether d falls within the period's own boundaries.
func (p Period) Contains(d time.Time) bool {
	return InRange(d, p.Start, p.End)
}

// Week is a generated 7-day fiscal week.
type Week struct {
	Number       int // 1..N, strictly increasing within a fiscal year
	PeriodID     int
	PeriodName   string
	Quarter      int
	FiscalYear   int
	Label        string // "P01-W02"
	WeekInPeriod int    // 1-based index within the owning period
	Start        time.Time
	End          time.Time // Start + 6 days
	Days         [7]time.Time
}

// Contains reports whether d is one of the week's seven days.
func (w Week) Contains(d time.Time) bool {
	return InRange(d, w.Start, w.End)
}

// Year is one fiscal year with its periods and weeks in order.
type Year struct {
	Year    int
	Start   time.Time // first period's start
	End     time.Time // last period's end
	Periods []Period  // ordered by ID
	Weeks   []Week    // ordered by Number
}

// Contains reports whether d lies within the fiscal year's span.
func (y *Year) Contains(d time.Time) bool {
	return InRange(d, y.Start, y.End)
}

// Calendar is the full derived structure. It is read-only once built.
type Calendar struct {
	Years      map[int]*Year
	DateToWeek map[string]*Week // keyed by DateKey
	MinYear    int
	MaxYear    int
}

// =============================================================================
// VIEW MODES
// =============================================================================

// ViewMode limits which weeks and periods of a year are shown.
type ViewMode string

const (
	ViewQ1   ViewMode = "Q1"
	ViewQ2   ViewMode = "Q2"
	ViewQ3   ViewMode = "Q3"
	ViewQ4   ViewMode = "Q4"
	ViewYear ViewMode = "Year"
)

// ParseViewMode accepts Q1..Q4 and Year. An empty string means Year.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ViewYear:
		return ViewYear, nil
	case ViewQ1, ViewQ2, ViewQ3, ViewQ4:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("invalid view mode %q: expected Q1, Q2, Q3, Q4 or Year", s)
}

// Quarter returns the quarter number of a quarter view, or 0 for Year.
func (v ViewMode) Quarter() int {
	switch v {
	case ViewQ1:
		return 1
	case ViewQ2:
		return 2
	case ViewQ3:
		return 3
	case ViewQ4:
		return 4
	}
	return 0
}

// MonthInView is a Gregorian month touched by a set of weeks, with the names
// of the periods whose weeks land in it.
type MonthInView struct {
	Year        int
	Month       time.Month
	PeriodNames []string
}

// PeriodName formats a period number as its display name.
func PeriodName(id int) string {
	return fmt.Sprintf("P%02d", id)
}
