package selection_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/fiscal"
)

func date(s string) time.Time {
	d, err := fiscal.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// retail445 builds a 12-period 4-4-5 year starting at start.
func retail445(year int, start time.Time) []fiscal.Row {
	pattern := []int{4, 4, 5}
	var rows []fiscal.Row
	cur := start
	for p := 1; p <= 12; p++ {
		end := fiscal.AddDays(cur, pattern[(p-1)%3]*7-1)
		rows = append(rows, fiscal.Row{Year: year, Start: cur, End: end, Period: p, Quarter: (p-1)/3 + 1})
		cur = fiscal.AddDays(end, 1)
	}
	return rows
}

// testCalendar holds FY2024 (2024-02-04 .. 2025-02-01) and FY2025
// (2025-02-02 .. 2026-01-31), both 52-week 4-4-5 years starting on Sunday.
func testCalendar(t *testing.T) *fiscal.Calendar {
	t.Helper()
	rows := append(retail445(2024, date("2024-02-04")), retail445(2025, date("2025-02-02"))...)
	cal, err := fiscal.Build(rows)
	require.NoError(t, err)
	return cal
}

func testYear(t *testing.T, n int) *fiscal.Year {
	t.Helper()
	year, ok := testCalendar(t).Year(n)
	require.True(t, ok)
	return year
}
