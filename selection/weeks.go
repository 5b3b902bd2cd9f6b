package selection

import "github.com/warp/fiscal-calendar/fiscal"

// =============================================================================
// WEEK CLICK / SHIFT-EXTEND POLICY
// =============================================================================

// WeekClicker remembers the last clicked week so a shift-click can extend
// from it. Anchor is 0 when no week is remembered.
type WeekClicker struct {
	Anchor int
}

// Click applies one click on week and returns the next selection (nil means
// cleared). weeks is the full week list of the viewed year.
//
// Plain click:
//   - on the anchor week: clear the selection and forget the anchor
//   - on any other week: select it and make it the anchor
//
// Shift-click with an anchor:
//   - on the start of a multi-week range: shrink from the start, the
//     anchor moves to the range end
//   - on the end of a multi-week range: shrink from the end, the anchor
//     moves to the range start
//   - anywhere else: select the range between anchor and week
//
// Shift-click without an anchor is a plain click.
func (c *WeekClicker) Click(current *Selection, week fiscal.Week, shift bool, weeks []fiscal.Week) *Selection {
	if shift && c.Anchor != 0 {
		if r := current.Range(); r != nil && r.Start < r.End {
			switch week.Number {
			case r.Start:
				c.Anchor = r.End
				return SelectWeekRange(r.Start+1, r.End, weeks)
			case r.End:
				c.Anchor = r.Start
				return SelectWeekRange(r.Start, r.End-1, weeks)
			}
		}
		if sel := SelectWeekRange(c.Anchor, week.Number, weeks); sel != nil {
			return sel
		}
		// The anchor is not a week of this year; start over from week.
		c.Anchor = week.Number
		return SelectWeek(week)
	}

	if c.Anchor == week.Number {
		c.Anchor = 0
		return nil
	}
	c.Anchor = week.Number
	return SelectWeek(week)
}

// Reset forgets the anchor.
func (c *WeekClicker) Reset() {
	c.Anchor = 0
}
