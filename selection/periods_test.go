package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
)

func TestTogglePeriod_UncheckTruncates(t *testing.T) {
	// GIVEN: P01..P04 selected
	// WHEN: Unchecking P02
	// THEN: Only the ids before P02 remain
	all := testYear(t, 2025).Periods

	assert.Equal(t, []int{1}, selection.TogglePeriod([]int{1, 2, 3, 4}, 2, all))
	assert.Equal(t, []int{1, 2, 3}, selection.TogglePeriod([]int{1, 2, 3, 4, 5, 6}, 4, all))
	assert.Empty(t, selection.TogglePeriod([]int{1, 2}, 1, all))
}

func TestTogglePeriod_CheckAutoFills(t *testing.T) {
	all := testYear(t, 2025).Periods

	assert.Equal(t, []int{5}, selection.TogglePeriod(nil, 5, all))
	assert.Equal(t, []int{1, 2, 3}, selection.TogglePeriod([]int{3}, 1, all))
	assert.Equal(t, []int{3, 4, 5, 6}, selection.TogglePeriod([]int{3}, 6, all))
}

func TestTogglePeriod_UncheckThenRecheck(t *testing.T) {
	// Re-checking lands on the auto-filled run from the first selected id,
	// not necessarily on the original selection.
	all := testYear(t, 2025).Periods
	selected := []int{1, 2, 3, 4, 5, 6}

	for _, id := range selected {
		unchecked := selection.TogglePeriod(selected, id, all)
		rechecked := selection.TogglePeriod(unchecked, id, all)

		var want []int
		for p := selected[0]; p <= id; p++ {
			want = append(want, p)
		}
		assert.Equal(t, want, rechecked, "id %d", id)
	}
}

func TestTogglePeriod_NonContiguousIDsFillFromFullList(t *testing.T) {
	all := []fiscal.Period{{ID: 10}, {ID: 20}, {ID: 30}, {ID: 40}}

	assert.Equal(t, []int{10, 20, 30}, selection.TogglePeriod([]int{30}, 10, all))
	// Unknown boundary leaves the selection unchanged
	assert.Equal(t, []int{30}, selection.TogglePeriod([]int{30}, 35, all))
}

func TestTogglePeriod_DoesNotModifyInput(t *testing.T) {
	all := testYear(t, 2025).Periods
	selected := []int{4, 2, 3}

	selection.TogglePeriod(selected, 3, all)
	assert.Equal(t, []int{4, 2, 3}, selected)
}

func TestSelectAllPeriods(t *testing.T) {
	year := testYear(t, 2025)

	assert.Equal(t, []int{4, 5, 6}, selection.SelectAllPeriods(year.PeriodsForView(fiscal.ViewQ2)))
	assert.Len(t, selection.SelectAllPeriods(year.Periods), 12)
}
