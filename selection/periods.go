package selection

import (
	"sort"

	"github.com/warp/fiscal-calendar/fiscal"
)

// =============================================================================
// PERIOD TOGGLE POLICY
// =============================================================================

// TogglePeriod returns the period ids selected after toggling id.
//
//   - Unchecking a selected id keeps only the ids before it:
//     [1,2,3,4,5,6] minus 4 -> [1,2,3]
//   - Checking into an empty selection selects just id.
//   - Checking otherwise fills every id of all between the new min and max:
//     [3] plus 1 -> [1,2,3]
//
// When the new min or max is not in all, the selection is returned as is.
// The input slice is never modified.
func TogglePeriod(selected []int, id int, all []fiscal.Period) []int {
	current := append([]int(nil), selected...)
	sort.Ints(current)

	if i := indexOf(current, id); i >= 0 {
		return current[:i]
	}

	if len(current) == 0 {
		return []int{id}
	}

	lo, hi := current[0], current[len(current)-1]
	if id < lo {
		lo = id
	}
	if id > hi {
		hi = id
	}

	allIDs := periodIDs(all)
	minIdx, maxIdx := indexOf(allIDs, lo), indexOf(allIDs, hi)
	if minIdx < 0 || maxIdx < 0 {
		return current
	}
	return append([]int(nil), allIDs[minIdx:maxIdx+1]...)
}

// SelectAllPeriods returns the ids of every visible period, sorted.
func SelectAllPeriods(visible []fiscal.Period) []int {
	return periodIDs(visible)
}

func periodIDs(periods []fiscal.Period) []int {
	ids := make([]int, len(periods))
	for i, p := range periods {
		ids[i] = p.ID
	}
	sort.Ints(ids)
	return ids
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
