package fiscal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/fiscal"
)

func TestParseDate_AcceptsDateLikeStrings(t *testing.T) {
	want := fiscal.NewDate(2025, time.February, 1)

	for _, in := range []string{
		"2025-02-01",
		" 2025-02-01 ",
		"2025-02-01T00:00:00Z",
		"2025-02-01T23:59:59.000-08:00",
		"2025-02-01 12:00:00",
	} {
		got, err := fiscal.ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "Feb 1 2025", "2025-13-01", "20250201"} {
		_, err := fiscal.ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestTruncate_UsesInstantLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	// 2025-02-01 22:00 at UTC-8 is already Feb 2 in UTC
	instant := time.Date(2025, 2, 1, 22, 0, 0, 0, loc)

	assert.Equal(t, fiscal.NewDate(2025, 2, 1), fiscal.Truncate(instant))
	assert.Equal(t, "2025-02-01", fiscal.DateKey(instant))
}

func TestWeekStart(t *testing.T) {
	// 2025-03-05 is a Wednesday
	d := fiscal.NewDate(2025, 3, 5)

	assert.Equal(t, fiscal.NewDate(2025, 3, 1), fiscal.WeekStart(d, time.Saturday))
	assert.Equal(t, fiscal.NewDate(2025, 3, 2), fiscal.WeekStart(d, time.Sunday))
	assert.Equal(t, d, fiscal.WeekStart(d, time.Wednesday))
	assert.Equal(t, fiscal.NewDate(2025, 2, 27), fiscal.WeekStart(d, time.Thursday))
}

func TestDaysBetweenAndOrder(t *testing.T) {
	a, b := fiscal.NewDate(2025, 2, 1), fiscal.NewDate(2025, 3, 1)

	assert.Equal(t, 28, fiscal.DaysBetween(a, b))
	assert.Equal(t, -28, fiscal.DaysBetween(b, a))

	first, last := fiscal.NewDate(1, 1, 1), fiscal.NewDate(9999, 12, 31)
	assert.Equal(t, 3652058, fiscal.DaysBetween(first, last))
	assert.Equal(t, -3652058, fiscal.DaysBetween(last, first))

	lo, hi := fiscal.OrderDates(b, a)
	assert.Equal(t, a, lo)
	assert.Equal(t, b, hi)
	assert.True(t, fiscal.InRange(a, a, b))
	assert.False(t, fiscal.InRange(fiscal.AddDays(b, 1), a, b))
}
