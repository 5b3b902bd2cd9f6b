package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/selection"
)

// =============================================================================
// CONSTRUCTORS
// =============================================================================

func TestSelectPeriods_SpansMinToMax(t *testing.T) {
	year := testYear(t, 2025)

	sel := selection.SelectPeriods([]int{3, 1}, year.Periods)
	require.NotNil(t, sel)

	assert.Equal(t, selection.TypePeriods, sel.Type)
	assert.Equal(t, date("2025-02-02"), sel.Start)
	assert.Equal(t, date("2025-05-03"), sel.End)
	assert.Equal(t, "P01, P03", sel.Label)
	assert.Equal(t, []int{1, 3}, sel.Meta.PeriodIDs)
}

func TestSelectPeriods_EmptyOrUnknown(t *testing.T) {
	year := testYear(t, 2025)

	assert.Nil(t, selection.SelectPeriods(nil, year.Periods))
	assert.Nil(t, selection.SelectPeriods([]int{13}, year.Periods))
	assert.Nil(t, selection.SelectPeriods([]int{1, 99}, year.Periods))
}

func TestSelectWeek(t *testing.T) {
	year := testYear(t, 2025)

	sel := selection.SelectWeek(*year.Week(5))
	assert.Equal(t, selection.TypeWeek, sel.Type)
	assert.Equal(t, date("2025-03-02"), sel.Start)
	assert.Equal(t, date("2025-03-08"), sel.End)
	assert.Equal(t, "P02-W01", sel.Label)
	assert.Equal(t, 5, sel.Meta.Week)
	assert.Equal(t, 7, sel.Days())
}

func TestSelectWeekRange_OrderIndependent(t *testing.T) {
	weeks := testYear(t, 2025).Weeks

	for a := 1; a <= len(weeks); a += 3 {
		for b := 1; b <= len(weeks); b += 5 {
			assert.Equal(t,
				selection.SelectWeekRange(a, b, weeks),
				selection.SelectWeekRange(b, a, weeks),
				"weeks %d and %d", a, b)
		}
	}
}

func TestSelectWeekRange_Labels(t *testing.T) {
	weeks := testYear(t, 2025).Weeks

	single := selection.SelectWeekRange(4, 4, weeks)
	assert.Equal(t, "Week 4", single.Label)

	multi := selection.SelectWeekRange(8, 3, weeks)
	assert.Equal(t, "Weeks 3-8", multi.Label)
	assert.Equal(t, &selection.WeekRange{Start: 3, End: 8}, multi.Meta.WeekRange)
	assert.Equal(t, date("2025-02-16"), multi.Start)
	assert.Equal(t, date("2025-03-29"), multi.End)

	assert.Nil(t, selection.SelectWeekRange(1, 60, weeks))
}

func TestSelectCustomRange_NormalizesAndDefaultsLabel(t *testing.T) {
	sel := selection.SelectCustomRange(date("2025-03-10"), date("2025-03-01"), "")

	assert.Equal(t, selection.TypeCustom, sel.Type)
	assert.Equal(t, date("2025-03-01"), sel.Start)
	assert.Equal(t, date("2025-03-10"), sel.End)
	assert.Equal(t, selection.DefaultCustomLabel, sel.Label)
	assert.Nil(t, sel.Meta)
	assert.Equal(t, 10, sel.Days())
}

func TestValidateWeekRange(t *testing.T) {
	weeks := testYear(t, 2025).Weeks

	assert.NoError(t, selection.ValidateWeekRange(1, 52, weeks))
	assert.ErrorIs(t, selection.ValidateWeekRange(0, 3, weeks), selection.ErrInvalidRange)
	assert.ErrorIs(t, selection.ValidateWeekRange(3, 53, weeks), selection.ErrInvalidRange)
}

func TestClone_IsDeep(t *testing.T) {
	year := testYear(t, 2025)
	sel := selection.SelectPeriods([]int{1, 2}, year.Periods)

	clone := sel.Clone()
	clone.Meta.PeriodIDs[0] = 9

	assert.Equal(t, []int{1, 2}, sel.Meta.PeriodIDs)
	assert.Nil(t, (*selection.Selection)(nil).Clone())
}

// =============================================================================
// FORMAT AND FILTER
// =============================================================================

func TestFormatSelection(t *testing.T) {
	year := testYear(t, 2025)
	weeks := year.Weeks

	monthly := selection.SelectCustomRange(date("2025-02-01"), date("2025-02-28"), "")
	monthly.Meta = &selection.Meta{PeriodIDs: []int{1}}

	tests := []struct {
		name string
		sel  *selection.Selection
		want string
	}{
		{"nil", nil, ""},
		{"periods", monthly, "Feb 1, 2025 - Feb 28, 2025 • P01 • 28 days"},
		{"week", selection.SelectWeek(weeks[0]), "Feb 2, 2025 - Feb 8, 2025 • Week 1 • 7 days"},
		{"range", selection.SelectWeekRange(3, 8, weeks), "Feb 16, 2025 - Mar 29, 2025 • Weeks 3-8 • 42 days"},
		{"custom", selection.SelectCustomRange(date("2025-03-01"), date("2025-03-01"), ""), "Mar 1, 2025 - Mar 1, 2025 • 1 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selection.FormatSelection(tt.sel))
		})
	}
}

func TestSelection_DaysAcrossMillennia(t *testing.T) {
	// GIVEN: A custom range spanning every representable year
	sel := selection.SelectCustomRange(date("0001-01-01"), date("9999-12-31"), "")

	// THEN: Day counts are exact
	assert.Equal(t, 3652059, sel.Days())
	assert.Contains(t, selection.FormatSelection(sel), "3652059 days")
}

func TestFilter_RoundTrip(t *testing.T) {
	year := testYear(t, 2025)
	sel := selection.SelectPeriods([]int{2}, year.Periods)

	f := selection.ToFilter(sel)
	require.NotNil(t, f)
	assert.Equal(t, "between", f.Operator)
	assert.False(t, f.HasTime)

	restored, err := selection.FromFilter(*f)
	require.NoError(t, err)
	assert.Equal(t, selection.TypeCustom, restored.Type)
	assert.Equal(t, selection.FilterLabel, restored.Label)
	assert.Equal(t, sel.Start, restored.Start)
	assert.Equal(t, sel.End, restored.End)

	assert.Nil(t, selection.ToFilter(nil))
}

func TestFromFilter_Rejects(t *testing.T) {
	_, err := selection.FromFilter(selection.Filter{Operator: "before", Start: date("2025-01-01")})
	assert.ErrorIs(t, err, selection.ErrUnsupportedFilter)

	_, err = selection.FromFilter(selection.Filter{Operator: "between", Start: date("2025-01-01")})
	assert.ErrorIs(t, err, selection.ErrUnsupportedFilter)

	_, err = selection.FromFilter(selection.Filter{Operator: "between", Start: date("2025-01-01"), End: date("2025-01-31"), HasTime: true})
	assert.ErrorIs(t, err, selection.ErrUnsupportedFilter)
	assert.ErrorContains(t, err, "time component")
}
