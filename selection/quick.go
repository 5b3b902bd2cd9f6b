package selection

import (
	"fmt"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// =============================================================================
// QUICK-SELECT PRESETS
// =============================================================================

// Preset is a named shorthand resolved against the viewing context.
type Preset string

const (
	ThisWeek    Preset = "thisWeek"
	LastWeek    Preset = "lastWeek"
	FirstWeek   Preset = "firstWeek"
	ThisPeriod  Preset = "thisPeriod"
	FirstPeriod Preset = "firstPeriod"
	LastPeriod  Preset = "lastPeriod"
	ThisQuarter Preset = "thisQuarter"
	YearToDate  Preset = "ytd"
	FullYear    Preset = "fullYear"
)

// AllPresets lists every preset in toolbar order.
var AllPresets = []Preset{
	ThisWeek, LastWeek, FirstWeek,
	ThisPeriod, FirstPeriod, LastPeriod,
	ThisQuarter, YearToDate, FullYear,
}

var presetLabels = map[Preset]string{
	ThisWeek:    "This Week",
	LastWeek:    "Last Week",
	FirstWeek:   "First Week",
	ThisPeriod:  "This Period",
	FirstPeriod: "First Period",
	LastPeriod:  "Last Period",
	ThisQuarter: "This Quarter",
	YearToDate:  "Year to Date",
	FullYear:    "Full Year",
}

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	p := Preset(s)
	if _, ok := presetLabels[p]; !ok {
		return "", fmt.Errorf("unknown quick preset %q", s)
	}
	return p, nil
}

// QuickLabel is the display name of a preset. Unknown presets are returned
// verbatim.
func QuickLabel(p Preset) string {
	if label, ok := presetLabels[p]; ok {
		return label
	}
	return string(p)
}

// OfferedPresets lists the presets a toolbar offers. Relative presets only
// make sense while viewing the year today falls in; other years get their
// boundaries instead.
func OfferedPresets(isCurrentYear bool) []Preset {
	if isCurrentYear {
		return []Preset{ThisWeek, LastWeek, ThisPeriod, ThisQuarter, YearToDate}
	}
	return []Preset{FirstWeek, LastWeek, FirstPeriod, LastPeriod, FullYear}
}

// IsViewingCurrentYear reports whether today falls within the span of the
// viewed fiscal year.
func IsViewingCurrentYear(cal *fiscal.Calendar, viewYear int, today time.Time) bool {
	year, ok := cal.Year(viewYear)
	return ok && year.Contains(today)
}

// =============================================================================
// RESOLVER
// =============================================================================

// ResolveQuick turns a preset into a Selection.
//
// viewYear is the fiscal year being viewed, 0 for none. With a viewing year
// the reference week/period is today's when today falls in that year, and
// the year's first week/period otherwise. Without one, today's context is
// used and its absence is ErrNoFiscalContext.
//
// A preset whose target does not exist (no week before week 1) resolves to
// (nil, nil): nothing changes.
func ResolveQuick(preset Preset, cal *fiscal.Calendar, viewYear int, today time.Time) (*Selection, error) {
	if _, ok := presetLabels[preset]; !ok {
		return nil, fmt.Errorf("unknown quick preset %q", preset)
	}
	today = fiscal.Truncate(today)

	year, refWeek, refPeriod, err := reference(cal, viewYear, today)
	if err != nil {
		return nil, err
	}
	if refWeek == nil || refPeriod == nil {
		return nil, nil
	}

	current := year.Contains(today)

	switch preset {
	case ThisWeek:
		return SelectWeek(*refWeek), nil

	case LastWeek:
		target := year.LastWeek()
		if current {
			target = year.Week(refWeek.Number - 1)
		}
		if target == nil {
			return nil, nil
		}
		return SelectWeek(*target), nil

	case FirstWeek:
		if w := year.FirstWeek(); w != nil {
			return SelectWeek(*w), nil
		}
		return nil, nil

	case ThisPeriod:
		return SelectPeriods([]int{refPeriod.ID}, year.Periods), nil

	case FirstPeriod:
		if p := year.FirstPeriod(); p != nil {
			return SelectPeriods([]int{p.ID}, year.Periods), nil
		}
		return nil, nil

	case LastPeriod:
		target := year.LastPeriod()
		if current {
			target = year.Period(refPeriod.ID - 1)
		}
		if target == nil {
			return nil, nil
		}
		return SelectPeriods([]int{target.ID}, year.Periods), nil

	case ThisQuarter:
		var ids []int
		for _, p := range year.PeriodsForQuarter(refPeriod.Quarter) {
			ids = append(ids, p.ID)
		}
		return SelectPeriods(ids, year.Periods), nil

	case YearToDate:
		return selectQuickRange(preset, year.Start, today, QuickLabel(YearToDate)), nil

	case FullYear:
		return selectQuickRange(preset, year.Start, year.End, fmt.Sprintf("FY %d", year.Year)), nil
	}
	return nil, nil
}

func reference(cal *fiscal.Calendar, viewYear int, today time.Time) (*fiscal.Year, *fiscal.Week, *fiscal.Period, error) {
	week, period := cal.CurrentContext(today)

	if viewYear == 0 {
		if week == nil || period == nil {
			return nil, nil, nil, fiscal.ErrNoFiscalContext
		}
		year, ok := cal.Year(week.FiscalYear)
		if !ok {
			return nil, nil, nil, fiscal.ErrNoFiscalContext
		}
		return year, week, period, nil
	}

	year, ok := cal.Year(viewYear)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %d", fiscal.ErrYearNotFound, viewYear)
	}
	if week != nil && period != nil && week.FiscalYear == viewYear {
		return year, week, period, nil
	}
	return year, year.FirstWeek(), year.FirstPeriod(), nil
}
