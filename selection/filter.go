package selection

import (
	"errors"
	"fmt"
	"time"
)

// FilterOperator is the only operator a selection maps to.
const FilterOperator = "between"

// FilterLabel labels a selection restored from a filter value.
const FilterLabel = "Selected Range"

// ErrUnsupportedFilter is returned by FromFilter for anything other than a
// date-only "between" filter.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Filter is the "between two dates" value a selection is applied as.
type Filter struct {
	Operator string
	Start    time.Time
	End      time.Time
	HasTime  bool
}

// ToFilter converts a selection into its filter value. nil stays nil.
func ToFilter(sel *Selection) *Filter {
	if sel == nil {
		return nil
	}
	return &Filter{
		Operator: FilterOperator,
		Start:    sel.Start,
		End:      sel.End,
		HasTime:  false,
	}
}

// FromFilter restores a custom selection labelled FilterLabel from a filter
// value.
func FromFilter(f Filter) (*Selection, error) {
	if f.Operator != FilterOperator {
		return nil, fmt.Errorf("%w: operator %q", ErrUnsupportedFilter, f.Operator)
	}
	if f.HasTime {
		return nil, fmt.Errorf("%w: time component", ErrUnsupportedFilter)
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return nil, fmt.Errorf("%w: between needs two dates", ErrUnsupportedFilter)
	}
	return SelectCustomRange(f.Start, f.End, FilterLabel), nil
}
