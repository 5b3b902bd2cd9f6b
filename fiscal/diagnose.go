package fiscal

import (
	"fmt"
	"sort"
)

// IssueKind classifies a non-fatal problem in the input rows.
type IssueKind string

const (
	IssueOverlap IssueKind = "overlap"
	IssueGap     IssueKind = "gap"
)

// Issue is a detected overlap or gap between two consecutive periods of a
// year. Issues are reported, never repaired.
type Issue struct {
	Kind    IssueKind
	Year    int
	Period  int // the earlier period
	Next    int // the later period
	Days    int // overlapping or missing days
	Message string
}

// Diagnose reports overlapping and gapped periods within each fiscal year.
// Rows are compared in start-date order. Invalid rows are skipped; Build is
// the place that rejects them.
//
// Example output:
//
//	"FY2025: P02 (2025-03-01 -> 2025-03-31) overlaps P03 (2025-03-30 -> 2025-04-26) by 2 days"
func Diagnose(rows []Row) []Issue {
	byYear := make(map[int][]Row)
	for i, r := range rows {
		if r.Validate(i) != nil {
			continue
		}
		byYear[r.Year] = append(byYear[r.Year], r)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var issues []Issue
	for _, y := range years {
		list := byYear[y]
		sort.SliceStable(list, func(i, j int) bool {
			return Truncate(list[i].Start).Before(Truncate(list[j].Start))
		})

		for i := 1; i < len(list); i++ {
			prev, curr := list[i-1], list[i]
			// Days between prev's end and curr's start; 1 means adjacent.
			step := DaysBetween(prev.End, curr.Start)
			switch {
			case step < 1:
				issues = append(issues, newIssue(IssueOverlap, y, prev, curr, 1-step))
			case step > 1:
				issues = append(issues, newIssue(IssueGap, y, prev, curr, step-1))
			}
		}
	}
	return issues
}

func newIssue(kind IssueKind, year int, prev, curr Row, days int) Issue {
	verb := "overlaps"
	if kind == IssueGap {
		verb = "is separated from"
	}
	return Issue{
		Kind:   kind,
		Year:   year,
		Period: prev.Period,
		Next:   curr.Period,
		Days:   days,
		Message: fmt.Sprintf("FY%d: %s (%s -> %s) %s %s (%s -> %s) by %d days",
			year,
			PeriodName(prev.Period), DateKey(prev.Start), DateKey(prev.End),
			verb,
			PeriodName(curr.Period), DateKey(curr.Start), DateKey(curr.End),
			days,
		),
	}
}
