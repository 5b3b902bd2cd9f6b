package selection

import (
	"sync"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// =============================================================================
// SESSION - The single mutable selection cell of one control
// =============================================================================

// State is a point-in-time copy of a session.
type State struct {
	Selection *Selection
	Drag      DragState
	Anchor    int // last clicked week, 0 if none
}

// Session owns one control's current Selection, drag and click anchor. Every
// method replaces the cell atomically under a mutex and hands out copies, so
// a Session can be shared between HTTP handlers.
//
// Operations whose target does not exist (unknown period id, missing quick
// target) leave the selection untouched.
type Session struct {
	mu      sync.Mutex
	current *Selection
	drag    Drag
	clicker WeekClicker
}

// NewSession returns a session with nothing selected.
func NewSession() *Session {
	return &Session{}
}

// State returns a copy of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Selection: s.current.Clone(),
		Drag:      s.drag.State(),
		Anchor:    s.clicker.Anchor,
	}
}

// Selection returns a copy of the current selection, or nil.
func (s *Session) Selection() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Clear drops the selection and forgets the click anchor.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.clicker.Reset()
}

// replace installs sel and returns a copy. Callers hold s.mu.
func (s *Session) replace(sel *Selection) *Selection {
	s.current = sel
	return sel.Clone()
}

// SelectPeriods selects the span of ids. Empty ids clears the selection;
// unknown ids are ignored.
func (s *Session) SelectPeriods(ids []int, periods []fiscal.Period) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		return s.replace(nil)
	}
	if sel := SelectPeriods(ids, periods); sel != nil {
		return s.replace(sel)
	}
	return s.current.Clone()
}

// TogglePeriod checks or unchecks id against the currently selected periods
// of the year whose periods are all.
func (s *Session) TogglePeriod(id int, all []fiscal.Period) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := TogglePeriod(s.current.PeriodIDs(), id, all)
	if len(ids) == 0 {
		return s.replace(nil)
	}
	if sel := SelectPeriods(ids, all); sel != nil {
		return s.replace(sel)
	}
	return s.current.Clone()
}

// SelectAllPeriods selects every visible period.
func (s *Session) SelectAllPeriods(visible, all []fiscal.Period) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := SelectAllPeriods(visible)
	if len(ids) == 0 {
		return s.current.Clone()
	}
	if sel := SelectPeriods(ids, all); sel != nil {
		return s.replace(sel)
	}
	return s.current.Clone()
}

// SelectWeek selects one week and makes it the click anchor.
func (s *Session) SelectWeek(week fiscal.Week) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicker.Anchor = week.Number
	return s.replace(SelectWeek(week))
}

// ClickWeek applies a grid click on week. weeks is the viewed year's full
// week list.
func (s *Session) ClickWeek(week fiscal.Week, shift bool, weeks []fiscal.Week) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(s.clicker.Click(s.current, week, shift, weeks))
}

// SelectWeekRange selects a typed-in week range after validating it.
func (s *Session) SelectWeekRange(start, end int, weeks []fiscal.Week) (*Selection, error) {
	if err := ValidateWeekRange(start, end, weeks); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(SelectWeekRange(start, end, weeks)), nil
}

// SelectCustomRange selects an arbitrary range.
func (s *Session) SelectCustomRange(start, end time.Time, label string) *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(SelectCustomRange(start, end, label))
}

// SelectQuick resolves and applies a preset. A preset without a target
// leaves the selection unchanged.
func (s *Session) SelectQuick(preset Preset, cal *fiscal.Calendar, viewYear int, today time.Time) (*Selection, error) {
	sel, err := ResolveQuick(preset, cal, viewYear, today)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sel == nil {
		return s.current.Clone(), nil
	}
	return s.replace(sel), nil
}

// StartDrag begins a drag at day.
func (s *Session) StartDrag(day time.Time) DragState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Start(day)
	return s.drag.State()
}

// UpdateDrag moves the current end of the drag.
func (s *Session) UpdateDrag(day time.Time) DragState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Update(day)
	return s.drag.State()
}

// EndDrag commits an in-progress drag. While idle nothing changes.
func (s *Session) EndDrag() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel := s.drag.End(); sel != nil {
		return s.replace(sel)
	}
	return s.current.Clone()
}

// CancelDrag abandons an in-progress drag.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
}

// Highlighted reports whether day is shown as selected, drag preview
// included.
func (s *Session) Highlighted(day time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsDateInSelection(day, s.current, s.drag.State())
}

// Filter returns the filter value of the current selection, or nil.
func (s *Session) Filter() *Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ToFilter(s.current)
}

// ApplyFilter initializes the selection from an existing filter value.
func (s *Session) ApplyFilter(f Filter) (*Selection, error) {
	sel, err := FromFilter(f)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicker.Reset()
	return s.replace(sel), nil
}
