/*
errors.go - Error types for calendar construction and lookups

ERROR CATEGORIES:
  1. Malformed input - a row is missing a field or carries an unparseable value
  2. Empty input     - no rows at all
  3. Context errors  - a requested fiscal year or "today" is not covered

Missing referenced entities (the week before week 1, an unknown period id)
are NOT errors. Lookups return nil and selection operations become no-ops.

USAGE:

	cal, err := fiscal.Build(rows)
	if errors.Is(err, fiscal.ErrMalformedInput) {
	    var rowErr *fiscal.RowError
	    if errors.As(err, &rowErr) { ... rowErr.Index, rowErr.Field ... }
	}
*/
package fiscal

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedInput is returned when a row is missing a required field or
	// a field cannot be parsed. The whole build fails.
	ErrMalformedInput = errors.New("malformed fiscal calendar input")

	// ErrEmptyInput is returned when no rows are supplied.
	ErrEmptyInput = errors.New("no fiscal calendar rows supplied")

	// ErrYearNotFound is returned when a fiscal year is not in the calendar.
	ErrYearNotFound = errors.New("fiscal year not found")

	// ErrNoFiscalContext is returned when today's date falls outside every
	// known fiscal year and no viewing year was given.
	ErrNoFiscalContext = errors.New("today is outside all known fiscal years")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// RowError describes which row and field made the input malformed.
type RowError struct {
	Index  int    // position of the row in the input, 0-based
	Field  string // YEAR, START_DATE, END_DATE, PERIOD or QUARTER
	Reason string
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *RowError) Unwrap() error {
	return ErrMalformedInput
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is caused by bad input data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrEmptyInput)
}

// IsNotFound returns true if the error names a fiscal context that does not
// exist in the calendar.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrYearNotFound) ||
		errors.Is(err, ErrNoFiscalContext)
}
