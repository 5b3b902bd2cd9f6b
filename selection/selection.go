/*
Package selection implements the date-range selection model layered on a
fiscal.Calendar.

PURPOSE:
  A user narrows a fiscal calendar down to one date range through five
  different mechanisms: explicit periods, a single week, a week range, a
  free-form drag across days, and named quick presets ("this period",
  "year to date"). Whatever the mechanism, the outcome is ONE canonical
  Selection that a filter consumer can apply.

KEY CONCEPTS:
  Selection:
    Type + inclusive [Start, End] civil dates + Label. Meta carries the
    period ids / week numbers / preset used to build it, so the UI can
    highlight what was picked. Meta never overrides Start/End.

  Constructors (this file):
    SelectPeriods, SelectWeek, SelectWeekRange, SelectCustomRange return a
    fresh *Selection or nil. nil means "no selection".

  Mutation policies:
    periods.go: TogglePeriod keeps period selections contiguous
    weeks.go:   WeekClicker handles click, shift-extend and shrink
    quick.go:   ResolveQuick maps a preset + viewing context to a range
    drag.go:    Drag is the idle/dragging state machine

  Session (session.go):
    The single mutable cell (selection, drag, click anchor) owned by one
    interactive control. Everything else in this package is pure.

EXAMPLE:
  sel := selection.SelectWeekRange(8, 3, year.Weeks)
  fmt.Println(sel.Label)                 // "Weeks 3-8"
  fmt.Println(selection.FormatSelection(sel))
  // "Feb 16, 2025 - Mar 29, 2025 • Weeks 3-8 • 42 days"

SEE ALSO:
  - fiscal/: The calendar this package reads
  - filter.go: Conversion to and from a "between" filter value
*/
package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// =============================================================================
// TYPES
// =============================================================================

// Type identifies how a Selection was produced.
type Type string

const (
	TypePeriods   Type = "periods"
	TypeWeek      Type = "week"
	TypeWeekRange Type = "weekRange"
	TypeCustom    Type = "custom"
	TypeQuick     Type = "quick"
)

// DefaultCustomLabel labels custom ranges built without an explicit label,
// including committed drags.
const DefaultCustomLabel = "Custom Range"

// ErrInvalidRange is returned when a week range falls outside the viewed
// year.
var ErrInvalidRange = errors.New("invalid range")

// WeekRange is an inclusive pair of week numbers with Start <= End.
type WeekRange struct {
	Start int
	End   int
}

// Meta records what was picked to build a Selection.
type Meta struct {
	PeriodIDs []int      // sorted ascending
	Week      int        // single week number, 0 if unset
	WeekRange *WeekRange // week range, nil if unset
	Quick     Preset     // quick preset, "" if unset
}

// Selection is the canonical selected date range.
type Selection struct {
	Type  Type
	Start time.Time
	End   time.Time
	Label string
	Meta  *Meta
}

// Contains reports whether day lies within the selection. A nil selection
// contains nothing.
func (s *Selection) Contains(day time.Time) bool {
	if s == nil {
		return false
	}
	return fiscal.InRange(day, s.Start, s.End)
}

// Days returns the inclusive day count of the selection.
func (s *Selection) Days() int {
	if s == nil {
		return 0
	}
	return fiscal.DaysBetween(s.Start, s.End) + 1
}

// Clone returns a deep copy so callers can never reach into a session's cell.
func (s *Selection) Clone() *Selection {
	if s == nil {
		return nil
	}
	out := *s
	if s.Meta != nil {
		m := *s.Meta
		if s.Meta.PeriodIDs != nil {
			m.PeriodIDs = append([]int(nil), s.Meta.PeriodIDs...)
		}
		if s.Meta.WeekRange != nil {
			r := *s.Meta.WeekRange
			m.WeekRange = &r
		}
		out.Meta = &m
	}
	return &out
}

// PeriodIDs returns the selected period ids, or nil for any other type.
func (s *Selection) PeriodIDs() []int {
	if s == nil || s.Type != TypePeriods || s.Meta == nil {
		return nil
	}
	return append([]int(nil), s.Meta.PeriodIDs...)
}

// Range returns the selected week range, or nil for any other type.
func (s *Selection) Range() *WeekRange {
	if s == nil || s.Type != TypeWeekRange || s.Meta == nil || s.Meta.WeekRange == nil {
		return nil
	}
	r := *s.Meta.WeekRange
	return &r
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// SelectPeriods selects the span from the lowest to the highest of ids.
// Returns nil when ids is empty or when either boundary id is not in periods.
func SelectPeriods(ids []int, periods []fiscal.Period) *Selection {
	if len(ids) == 0 {
		return nil
	}

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	first := findPeriod(periods, sorted[0])
	last := findPeriod(periods, sorted[len(sorted)-1])
	if first == nil || last == nil {
		return nil
	}

	names := make([]string, len(sorted))
	for i, id := range sorted {
		names[i] = fiscal.PeriodName(id)
	}

	start, end := fiscal.OrderDates(first.Start, last.End)
	return &Selection{
		Type:  TypePeriods,
		Start: start,
		End:   end,
		Label: strings.Join(names, ", "),
		Meta:  &Meta{PeriodIDs: sorted},
	}
}

// SelectWeek selects exactly one generated week.
func SelectWeek(week fiscal.Week) *Selection {
	return &Selection{
		Type:  TypeWeek,
		Start: week.Start,
		End:   week.End,
		Label: week.Label,
		Meta:  &Meta{Week: week.Number},
	}
}

// SelectWeekRange selects weeks a..b inclusive in either order. Returns nil
// when either week is not in weeks.
func SelectWeekRange(a, b int, weeks []fiscal.Week) *Selection {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}

	first := findWeek(weeks, lo)
	last := findWeek(weeks, hi)
	if first == nil || last == nil {
		return nil
	}

	label := fmt.Sprintf("Weeks %d-%d", lo, hi)
	if lo == hi {
		label = fmt.Sprintf("Week %d", lo)
	}

	return &Selection{
		Type:  TypeWeekRange,
		Start: first.Start,
		End:   last.End,
		Label: label,
		Meta:  &Meta{WeekRange: &WeekRange{Start: lo, End: hi}},
	}
}

// SelectCustomRange selects an arbitrary day range. The dates are ordered
// and truncated to civil dates. An empty label becomes DefaultCustomLabel.
func SelectCustomRange(start, end time.Time, label string) *Selection {
	if label == "" {
		label = DefaultCustomLabel
	}
	start, end = fiscal.OrderDates(start, end)
	return &Selection{
		Type:  TypeCustom,
		Start: start,
		End:   end,
		Label: label,
	}
}

func selectQuickRange(preset Preset, start, end time.Time, label string) *Selection {
	start, end = fiscal.OrderDates(start, end)
	return &Selection{
		Type:  TypeQuick,
		Start: start,
		End:   end,
		Label: label,
		Meta:  &Meta{Quick: preset},
	}
}

// ValidateWeekRange accepts a typed-in week range only when start >= 1 and
// both weeks exist in weeks.
func ValidateWeekRange(start, end int, weeks []fiscal.Week) error {
	if start < 1 || end < 1 {
		return fmt.Errorf("%w: week numbers start at 1 (got %d-%d)", ErrInvalidRange, start, end)
	}
	for _, n := range []int{start, end} {
		if findWeek(weeks, n) == nil {
			return fmt.Errorf("%w: week %d does not exist", ErrInvalidRange, n)
		}
	}
	return nil
}

func findPeriod(periods []fiscal.Period, id int) *fiscal.Period {
	for i := range periods {
		if periods[i].ID == id {
			return &periods[i]
		}
	}
	return nil
}

func findWeek(weeks []fiscal.Week, number int) *fiscal.Week {
	for i := range weeks {
		if weeks[i].Number == number {
			return &weeks[i]
		}
	}
	return nil
}
