package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/selection"
)

func TestDrag_BackwardsCommitsOrderedRange(t *testing.T) {
	// GIVEN: A drag from D+5 back to D
	d := date("2025-03-10")
	var drag selection.Drag

	drag.Start(fiscal.AddDays(d, 5))
	drag.Update(fiscal.AddDays(d, 2))
	drag.Update(d)

	// WHEN: Releasing
	sel := drag.End()

	// THEN: A custom selection [D, D+5]
	require.NotNil(t, sel)
	assert.Equal(t, selection.TypeCustom, sel.Type)
	assert.Equal(t, d, sel.Start)
	assert.Equal(t, fiscal.AddDays(d, 5), sel.End)
	assert.Equal(t, "Custom Range", sel.Label)
	assert.False(t, drag.State().Dragging)
}

func TestDrag_CommitAlwaysOrdered(t *testing.T) {
	base := date("2025-03-10")

	for a := -10; a <= 10; a += 3 {
		for c := -10; c <= 10; c += 4 {
			var drag selection.Drag
			drag.Start(fiscal.AddDays(base, a))
			drag.Update(fiscal.AddDays(base, c))

			sel := drag.End()
			require.NotNil(t, sel)
			assert.False(t, sel.End.Before(sel.Start), "anchor %d current %d", a, c)
		}
	}
}

func TestDrag_IdleOperations(t *testing.T) {
	var drag selection.Drag

	drag.Update(date("2025-03-10"))
	assert.False(t, drag.State().Dragging, "update never starts a drag")
	assert.Nil(t, drag.End())

	drag.Start(date("2025-03-10"))
	drag.Cancel()
	assert.Nil(t, drag.End(), "cancelled drags never commit")
}

func TestIsDateInSelection_DragPreviewFirst(t *testing.T) {
	sel := selection.SelectCustomRange(date("2025-03-01"), date("2025-03-03"), "")
	var drag selection.Drag

	assert.True(t, selection.IsDateInSelection(date("2025-03-02"), sel, drag.State()))
	assert.False(t, selection.IsDateInSelection(date("2025-03-12"), sel, drag.State()))

	drag.Start(date("2025-03-15"))
	drag.Update(date("2025-03-10"))
	assert.True(t, selection.IsDateInSelection(date("2025-03-12"), sel, drag.State()))
	assert.True(t, selection.IsDateInSelection(date("2025-03-02"), sel, drag.State()))
	assert.False(t, selection.IsDateInSelection(date("2025-03-20"), nil, drag.State()))
}
