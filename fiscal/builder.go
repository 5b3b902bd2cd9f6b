package fiscal

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// BUILD - Rows -> Calendar
// =============================================================================

// Build derives a Calendar from period rows.
//
// Rows are grouped by fiscal year and sorted by period number. Weeks are then
// generated per year:
//
//   - The anchor weekday is the weekday of the year's first period start.
//   - For each period, the first week starts on the most recent anchor
//     weekday on or before the period start, and 7-day weeks are emitted
//     until a week would start after the period end.
//   - The last week of a period may run past its end into the next period.
//     It still belongs to the period that generated it.
//   - Week numbers run 1..N across the whole year and never reset.
//
// Any malformed row, a duplicate period number within a year, or an empty
// input fails the whole build. No partial calendar is ever returned.
//
// Example:
//
//	cal, err := fiscal.Build([]fiscal.Row{
//	    {Year: 2025, Start: fiscal.NewDate(2025, 2, 1), End: fiscal.NewDate(2025, 2, 28), Period: 1, Quarter: 1},
//	    {Year: 2025, Start: fiscal.NewDate(2025, 3, 1), End: fiscal.NewDate(2025, 3, 31), Period: 2, Quarter: 1},
//	})
//	// cal.Years[2025].Weeks[0].Start == 2025-02-01 (a Saturday, the anchor)
//	// period 1 -> weeks 1..4, period 2 -> weeks 5..9
func Build(rows []Row) (*Calendar, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	byYear := make(map[int][]Row)
	seen := make(map[[2]int]int)
	for i, row := range rows {
		if err := row.Validate(i); err != nil {
			return nil, err
		}
		key := [2]int{row.Year, row.Period}
		if first, dup := seen[key]; dup {
			return nil, &RowError{
				Index:  i,
				Field:  "PERIOD",
				Reason: fmt.Sprintf("period %d of year %d already defined by row %d", row.Period, row.Year, first),
			}
		}
		seen[key] = i
		byYear[row.Year] = append(byYear[row.Year], row)
	}

	yearNumbers := make([]int, 0, len(byYear))
	for y := range byYear {
		yearNumbers = append(yearNumbers, y)
	}
	sort.Ints(yearNumbers)

	cal := &Calendar{
		Years:      make(map[int]*Year, len(yearNumbers)),
		DateToWeek: make(map[string]*Week),
		MinYear:    yearNumbers[0],
		MaxYear:    yearNumbers[len(yearNumbers)-1],
	}

	for _, y := range yearNumbers {
		year, err := buildYear(y, byYear[y])
		if err != nil {
			return nil, err
		}
		cal.Years[y] = year

		// Later weeks overwrite earlier ones for days generated twice
		// (a period's overflow week and the next period's first week).
		for i := range year.Weeks {
			w := &year.Weeks[i]
			for _, day := range w.Days {
				cal.DateToWeek[DateKey(day)] = w
			}
		}
	}

	return cal, nil
}

func buildYear(fiscalYear int, rows []Row) (*Year, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: fiscal year %d has no periods", ErrMalformedInput, fiscalYear)
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period < sorted[j].Period
	})

	periods := buildPeriods(fiscalYear, sorted)
	weeks := generateWeeks(fiscalYear, sorted)
	backfillWeekNumbers(periods, weeks)

	return &Year{
		Year:    fiscalYear,
		Start:   Truncate(sorted[0].Start),
		End:     Truncate(sorted[len(sorted)-1].End),
		Periods: periods,
		Weeks:   weeks,
	}, nil
}

func buildPeriods(fiscalYear int, rows []Row) []Period {
	periods := make([]Period, len(rows))
	for i, row := range rows {
		start, end := Truncate(row.Start), Truncate(row.End)
		periods[i] = Period{
			ID:         row.Period,
			Name:       PeriodName(row.Period),
			FiscalYear: fiscalYear,
			Quarter:    row.Quarter,
			Start:      start,
			End:        end,
			Days:       DaysBetween(start, end) + 1,
		}
	}
	return periods
}

// generateWeeks emits the flat, ordered week sequence for one year. Each week
// records the period that triggered it; periods learn their week numbers
// afterwards in backfillWeekNumbers.
func generateWeeks(fiscalYear int, rows []Row) []Week {
	anchor := Truncate(rows[0].Start).Weekday()

	var weeks []Week
	number := 1
	for _, row := range rows {
		periodEnd := Truncate(row.End)
		inPeriod := 1
		for start := WeekStart(Truncate(row.Start), anchor); !start.After(periodEnd); start = AddDays(start, 7) {
			weeks = append(weeks, newWeek(fiscalYear, row, number, inPeriod, start))
			number++
			inPeriod++
		}
	}
	return weeks
}

func newWeek(fiscalYear int, row Row, number, inPeriod int, start time.Time) Week {
	w := Week{
		Number:       number,
		PeriodID:     row.Period,
		PeriodName:   PeriodName(row.Period),
		Quarter:      row.Quarter,
		FiscalYear:   fiscalYear,
		Label:        fmt.Sprintf("%s-W%02d", PeriodName(row.Period), inPeriod),
		WeekInPeriod: inPeriod,
		Start:        start,
		End:          AddDays(start, 6),
	}
	for i := range w.Days {
		w.Days[i] = AddDays(start, i)
	}
	return w
}

// backfillWeekNumbers sets StartWeek/EndWeek on every period in a single pass
// over the week sequence.
func backfillWeekNumbers(periods []Period, weeks []Week) {
	index := make(map[int]int, len(periods))
	for i, p := range periods {
		index[p.ID] = i
	}
	for _, w := range weeks {
		p := &periods[index[w.PeriodID]]
		if p.StartWeek == 0 {
			p.StartWeek = w.Number
		}
		p.EndWeek = w.Number
	}
}
