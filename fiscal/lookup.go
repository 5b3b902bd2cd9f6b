package fiscal

import (
	"sort"
	"time"
)

// =============================================================================
// CALENDAR LOOKUPS
// =============================================================================

// Year returns the fiscal year numbered n.
func (c *Calendar) Year(n int) (*Year, bool) {
	y, ok := c.Years[n]
	return y, ok
}

// YearNumbers returns every fiscal year in the calendar, ascending.
func (c *Calendar) YearNumbers() []int {
	years := make([]int, 0, len(c.Years))
	for y := range c.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// WeekFor returns the generated week covering d, or nil.
func (c *Calendar) WeekFor(d time.Time) *Week {
	return c.DateToWeek[DateKey(d)]
}

// YearFor returns the first fiscal year whose span contains d, or nil.
func (c *Calendar) YearFor(d time.Time) *Year {
	for _, n := range c.YearNumbers() {
		if y := c.Years[n]; y.Contains(d) {
			return y
		}
	}
	return nil
}

// CurrentContext returns the week containing today and the period that
// generated it. Both are nil when today is not covered by any week.
func (c *Calendar) CurrentContext(today time.Time) (*Week, *Period) {
	week := c.WeekFor(today)
	if week == nil {
		return nil, nil
	}
	year, ok := c.Years[week.FiscalYear]
	if !ok {
		return week, nil
	}
	return week, year.Period(week.PeriodID)
}

// CurrentYear picks the fiscal year to show for today:
//
//  1. the year of the week containing today
//  2. the first year whose span contains today
//  3. the middle year of the calendar
func (c *Calendar) CurrentYear(today time.Time) int {
	if w := c.WeekFor(today); w != nil {
		return w.FiscalYear
	}
	if y := c.YearFor(today); y != nil {
		return y.Year
	}
	years := c.YearNumbers()
	if len(years) == 0 {
		return today.Year()
	}
	return years[len(years)/2]
}

// =============================================================================
// YEAR LOOKUPS
// =============================================================================

// Period returns the period with the given id, or nil.
func (y *Year) Period(id int) *Period {
	for i := range y.Periods {
		if y.Periods[i].ID == id {
			return &y.Periods[i]
		}
	}
	return nil
}

// Week returns the week with the given number, or nil.
func (y *Year) Week(number int) *Week {
	// Week numbers are dense from 1, so the slice index is a fast path.
	if i := number - 1; i >= 0 && i < len(y.Weeks) && y.Weeks[i].Number == number {
		return &y.Weeks[i]
	}
	for i := range y.Weeks {
		if y.Weeks[i].Number == number {
			return &y.Weeks[i]
		}
	}
	return nil
}

// FirstWeek returns the year's first week, or nil for a year without weeks.
func (y *Year) FirstWeek() *Week {
	if len(y.Weeks) == 0 {
		return nil
	}
	return &y.Weeks[0]
}

// LastWeek returns the year's last week, or nil.
func (y *Year) LastWeek() *Week {
	if len(y.Weeks) == 0 {
		return nil
	}
	return &y.Weeks[len(y.Weeks)-1]
}

// FirstPeriod returns the year's first period, or nil.
func (y *Year) FirstPeriod() *Period {
	if len(y.Periods) == 0 {
		return nil
	}
	return &y.Periods[0]
}

// LastPeriod returns the year's last period, or nil.
func (y *Year) LastPeriod() *Period {
	if len(y.Periods) == 0 {
		return nil
	}
	return &y.Periods[len(y.Periods)-1]
}

// PeriodsForQuarter returns the periods of quarter q in order.
func (y *Year) PeriodsForQuarter(q int) []Period {
	var out []Period
	for _, p := range y.Periods {
		if p.Quarter == q {
			out = append(out, p)
		}
	}
	return out
}

// PeriodsForView returns all periods for ViewYear, or the quarter's periods.
func (y *Year) PeriodsForView(v ViewMode) []Period {
	if q := v.Quarter(); q > 0 {
		return y.PeriodsForQuarter(q)
	}
	return y.Periods
}

// WeeksForView returns all weeks for ViewYear, or the weeks whose owning
// period belongs to the quarter.
func (y *Year) WeeksForView(v ViewMode) []Week {
	q := v.Quarter()
	if q == 0 {
		return y.Weeks
	}
	var out []Week
	for _, w := range y.Weeks {
		if w.Quarter == q {
			out = append(out, w)
		}
	}
	return out
}

// MonthsInView lists the Gregorian months a set of weeks spans. A week is
// placed in the month of its middle day, so a week straddling two months is
// shown once. Months are returned chronologically with sorted period names.
func MonthsInView(weeks []Week) []MonthInView {
	if len(weeks) == 0 {
		return nil
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	names := make(map[monthKey]map[string]bool)
	var keys []monthKey
	for _, w := range weeks {
		middle := w.Days[len(w.Days)/2]
		k := monthKey{middle.Year(), middle.Month()}
		if _, ok := names[k]; !ok {
			names[k] = make(map[string]bool)
			keys = append(keys, k)
		}
		names[k][w.PeriodName] = true
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]MonthInView, 0, len(keys))
	for _, k := range keys {
		periodNames := make([]string, 0, len(names[k]))
		for n := range names[k] {
			periodNames = append(periodNames, n)
		}
		sort.Strings(periodNames)
		out = append(out, MonthInView{Year: k.year, Month: k.month, PeriodNames: periodNames})
	}
	return out
}
