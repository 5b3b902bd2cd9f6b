package source

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// Result is one successful load.
type Result struct {
	Calendar *fiscal.Calendar
	Source   Resolved
	Rows     int
	Issues   []fiscal.Issue
	LoadedAt time.Time
}

// Loader resolves a source, fetches its rows and builds the calendar.
type Loader struct {
	discovery *Discovery
	rows      RowSource

	// FromYear and ToYear limit the fiscal years built. Zero means unbounded.
	FromYear int
	ToYear   int

	now func() time.Time
}

// NewLoader creates a loader.
func NewLoader(discovery *Discovery, rows RowSource) *Loader {
	return &Loader{discovery: discovery, rows: rows, now: time.Now}
}

// Discovery returns the loader's discovery, e.g. to clear its cache.
func (l *Loader) Discovery() *Discovery {
	return l.discovery
}

// Load runs discovery, fetch and build. A failure at any step returns no
// calendar.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	resolved, err := l.discovery.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := l.rows.FetchRows(ctx, resolved.ID)
	if err != nil {
		return nil, fmt.Errorf("load fiscal calendar from source %s: %w", resolved.ID, err)
	}
	rows = FilterYears(rows, l.FromYear, l.ToYear)

	cal, err := fiscal.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("build fiscal calendar from source %s: %w", resolved.ID, err)
	}

	return &Result{
		Calendar: cal,
		Source:   resolved,
		Rows:     len(rows),
		Issues:   fiscal.Diagnose(rows),
		LoadedAt: l.now(),
	}, nil
}

// FilterYears keeps rows whose fiscal year is within [from, to]. Zero bounds
// are open.
func FilterYears(rows []fiscal.Row, from, to int) []fiscal.Row {
	if from == 0 && to == 0 {
		return rows
	}
	var out []fiscal.Row
	for _, r := range rows {
		if from != 0 && r.Year < from {
			continue
		}
		if to != 0 && r.Year > to {
			continue
		}
		out = append(out, r)
	}
	return out
}
