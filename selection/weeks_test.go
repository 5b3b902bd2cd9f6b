package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/selection"
)

func TestWeekClicker_PlainClickSelectsAndSecondClickClears(t *testing.T) {
	weeks := testYear(t, 2025).Weeks
	var c selection.WeekClicker

	sel := c.Click(nil, weeks[4], false, weeks)
	require.NotNil(t, sel)
	assert.Equal(t, selection.TypeWeek, sel.Type)
	assert.Equal(t, 5, c.Anchor)

	sel = c.Click(sel, weeks[4], false, weeks)
	assert.Nil(t, sel)
	assert.Equal(t, 0, c.Anchor)
}

func TestWeekClicker_ClickOtherWeekMovesAnchor(t *testing.T) {
	weeks := testYear(t, 2025).Weeks
	var c selection.WeekClicker

	sel := c.Click(nil, weeks[4], false, weeks)
	sel = c.Click(sel, weeks[9], false, weeks)

	assert.Equal(t, 10, sel.Meta.Week)
	assert.Equal(t, 10, c.Anchor)
}

func TestWeekClicker_ShiftExtendAndShrink(t *testing.T) {
	// GIVEN: Week 5 clicked, then shift-click on week 8
	weeks := testYear(t, 2025).Weeks
	var c selection.WeekClicker

	sel := c.Click(nil, weeks[4], false, weeks)
	sel = c.Click(sel, weeks[7], true, weeks)
	require.NotNil(t, sel)
	assert.Equal(t, &selection.WeekRange{Start: 5, End: 8}, sel.Range())
	assert.Equal(t, 5, c.Anchor, "extending keeps the anchor")

	// WHEN: Shift-clicking the range start
	sel = c.Click(sel, weeks[4], true, weeks)
	// THEN: The start moves forward and the anchor moves to the end
	assert.Equal(t, &selection.WeekRange{Start: 6, End: 8}, sel.Range())
	assert.Equal(t, 8, c.Anchor)

	// WHEN: Shift-clicking the range end
	sel = c.Click(sel, weeks[7], true, weeks)
	// THEN: The end moves back and the anchor moves to the start
	assert.Equal(t, &selection.WeekRange{Start: 6, End: 7}, sel.Range())
	assert.Equal(t, 6, c.Anchor)
}

func TestWeekClicker_ShiftBackwards(t *testing.T) {
	weeks := testYear(t, 2025).Weeks
	c := selection.WeekClicker{Anchor: 8}

	sel := c.Click(nil, weeks[2], true, weeks)
	assert.Equal(t, &selection.WeekRange{Start: 3, End: 8}, sel.Range())
	assert.Equal(t, "Weeks 3-8", sel.Label)
}

func TestWeekClicker_OneWeekRangeNeverShrinks(t *testing.T) {
	weeks := testYear(t, 2025).Weeks
	c := selection.WeekClicker{Anchor: 6}
	current := selection.SelectWeekRange(6, 6, weeks)

	sel := c.Click(current, weeks[5], true, weeks)
	assert.Equal(t, &selection.WeekRange{Start: 6, End: 6}, sel.Range())
	assert.Equal(t, 6, c.Anchor)
}

func TestWeekClicker_ShiftWithoutAnchorIsPlainClick(t *testing.T) {
	weeks := testYear(t, 2025).Weeks
	var c selection.WeekClicker

	sel := c.Click(nil, weeks[2], true, weeks)
	assert.Equal(t, selection.TypeWeek, sel.Type)
	assert.Equal(t, 3, c.Anchor)
}

func TestWeekClicker_StaleAnchorStartsOver(t *testing.T) {
	weeks := testYear(t, 2025).Weeks
	c := selection.WeekClicker{Anchor: 99}

	sel := c.Click(nil, weeks[2], true, weeks)
	assert.Equal(t, selection.TypeWeek, sel.Type)
	assert.Equal(t, 3, c.Anchor)
}
