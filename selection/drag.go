package selection

import (
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// =============================================================================
// DRAG RANGE CONTROLLER
// =============================================================================

// DragState is a snapshot of a drag. Anchor and Current are zero while idle.
type DragState struct {
	Dragging bool
	Anchor   time.Time
	Current  time.Time
}

// Preview returns the ordered range covered by an in-progress drag.
func (s DragState) Preview() (start, end time.Time, ok bool) {
	if !s.Dragging || s.Anchor.IsZero() || s.Current.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	start, end = fiscal.OrderDates(s.Anchor, s.Current)
	return start, end, true
}

// Drag is the idle/dragging state machine behind press-move-release range
// selection. The zero value is idle.
type Drag struct {
	state DragState
}

// State returns the current drag snapshot.
func (d *Drag) State() DragState {
	return d.state
}

// Start begins a drag at day, replacing any drag in progress.
func (d *Drag) Start(day time.Time) {
	day = fiscal.Truncate(day)
	d.state = DragState{Dragging: true, Anchor: day, Current: day}
}

// Update moves the drag's current end. Ignored while idle.
func (d *Drag) Update(day time.Time) {
	if !d.state.Dragging {
		return
	}
	d.state.Current = fiscal.Truncate(day)
}

// End commits the drag as a custom Selection ordered start <= end and
// returns to idle. While idle it returns nil.
func (d *Drag) End() *Selection {
	start, end, ok := d.state.Preview()
	d.state = DragState{}
	if !ok {
		return nil
	}
	return SelectCustomRange(start, end, DefaultCustomLabel)
}

// Cancel returns to idle without committing.
func (d *Drag) Cancel() {
	d.state = DragState{}
}

// IsDateInSelection reports whether day is highlighted: inside the preview
// of an in-progress drag, or inside the selection.
func IsDateInSelection(day time.Time, sel *Selection, drag DragState) bool {
	if start, end, ok := drag.Preview(); ok && fiscal.InRange(day, start, end) {
		return true
	}
	return sel.Contains(day)
}
