package factory

import (
	"fmt"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// =============================================================================
// SAMPLE CALENDARS
// =============================================================================

// Layout names a generated calendar shape.
type Layout string

const (
	// LayoutRetail445 is a 52/53-week retail year in 4-4-5 periods starting
	// on the Sunday nearest February 1. The last period absorbs a 53rd week.
	LayoutRetail445 Layout = "retail-445"

	// LayoutMonthly has twelve Gregorian-month periods from StartMonth.
	LayoutMonthly Layout = "monthly"

	// LayoutThirteen has thirteen 4-week periods starting on the Sunday
	// nearest January 1, quarters of 3-3-3-4 periods.
	LayoutThirteen Layout = "thirteen-period"
)

// SampleConfig describes a generated calendar.
//
// FiscalYear N is labelled by the calendar year it starts in, e.g. with
// StartMonth April, FY2026 runs Apr 1, 2026 - Mar 31, 2027.
type SampleConfig struct {
	Layout     Layout
	StartMonth time.Month // LayoutMonthly only, defaults to January
	FromYear   int
	ToYear     int
}

// Sample generates period rows for every fiscal year in the config.
func (f *RowFactory) Sample(cfg SampleConfig) ([]fiscal.Row, error) {
	if cfg.FromYear <= 0 || cfg.ToYear < cfg.FromYear {
		return nil, fmt.Errorf("invalid sample years %d-%d", cfg.FromYear, cfg.ToYear)
	}

	var rows []fiscal.Row
	for y := cfg.FromYear; y <= cfg.ToYear; y++ {
		switch cfg.Layout {
		case LayoutRetail445:
			rows = append(rows, weeklyYear(y, retailStart(y), retailStart(y+1), []int{4, 4, 5}, quarterOf445)...)
		case LayoutThirteen:
			rows = append(rows, weeklyYear(y, thirteenStart(y), thirteenStart(y+1), []int{4}, quarterOf13)...)
		case LayoutMonthly:
			rows = append(rows, monthlyYear(y, cfg.StartMonth)...)
		default:
			return nil, fmt.Errorf("unknown calendar layout %q", cfg.Layout)
		}
	}
	return rows, nil
}

func retailStart(year int) time.Time {
	return nearestSunday(fiscal.NewDate(year, time.February, 1))
}

func thirteenStart(year int) time.Time {
	return nearestSunday(fiscal.NewDate(year, time.January, 1))
}

// nearestSunday returns the Sunday within three days of d.
func nearestSunday(d time.Time) time.Time {
	return fiscal.WeekStart(fiscal.AddDays(d, 3), time.Sunday)
}

func quarterOf445(period int) int { return (period-1)/3 + 1 }

func quarterOf13(period int) int {
	if q := (period-1)/3 + 1; q < 4 {
		return q
	}
	return 4
}

// weeklyYear cuts [start, next) into periods whose week counts cycle
// through pattern. The final period runs to the day before next.
func weeklyYear(year int, start, next time.Time, pattern []int, quarterOf func(int) int) []fiscal.Row {
	periods := 12
	if len(pattern) == 1 {
		periods = 13
	}

	rows := make([]fiscal.Row, 0, periods)
	cur := start
	for p := 1; p <= periods; p++ {
		end := fiscal.AddDays(cur, pattern[(p-1)%len(pattern)]*7-1)
		if p == periods {
			end = fiscal.AddDays(next, -1)
		}
		rows = append(rows, fiscal.Row{Year: year, Start: cur, End: end, Period: p, Quarter: quarterOf(p)})
		cur = fiscal.AddDays(end, 1)
	}
	return rows
}

func monthlyYear(year int, startMonth time.Month) []fiscal.Row {
	if startMonth == 0 {
		startMonth = time.January
	}
	rows := make([]fiscal.Row, 0, 12)
	start := fiscal.NewDate(year, startMonth, 1)
	for p := 1; p <= 12; p++ {
		next := start.AddDate(0, 1, 0)
		rows = append(rows, fiscal.Row{
			Year:    year,
			Start:   start,
			End:     fiscal.AddDays(next, -1),
			Period:  p,
			Quarter: quarterOf445(p),
		})
		start = next
	}
	return rows
}
