/*
Package source locates and loads the period rows a calendar is built from.

PURPOSE:
  Period rows live somewhere outside this process: a saved query in a
  warehouse, a table, an uploaded file. Which one is not configured up
  front. Sources are tagged with a marker in their description and found
  by searching for it, unless an operator pins a specific source.

KEY INTERFACES:
  RowSource: Fetches the rows of one source
  Catalog:   Searches sources by marker text
  Backend:   RowSource + Catalog, what a Loader reads from
  Store:     A writable catalog + row source (SQLite, memory)

KEY TYPES:
  Discovery: override -> cached -> marker search (discovery.go)
  Loader:    Discovery + RowSource + fiscal.Build (loader.go)

IMPLEMENTATIONS:
  - store/sqlite:    Store
  - store/memory:    Store, for tests and seeding
  - store/postgres:  Backend over warehouse tables
  - store/s3source:  Backend over CSV/JSON objects

SEE ALSO:
  - factory/: Adapts loosely-typed rows before they reach fiscal.Build
*/
package source

import (
	"context"
	"errors"
	"time"

	"github.com/warp/fiscal-calendar/fiscal"
)

// Marker tags a source as a fiscal calendar in its description.
const Marker = "[FISCAL_CALENDAR_SOURCE]"

// PreferredCollections are collection names whose sources win when several
// sources carry the marker. Matching is case-insensitive substring.
var PreferredCollections = []string{"Fiscal Calendar", "System Queries"}

// ErrSourceNotFound is returned when no source can be resolved or a source
// id does not exist.
var ErrSourceNotFound = errors.New("fiscal calendar source not found")

// SourceInfo describes one source of period rows.
type SourceInfo struct {
	ID          string
	Name        string
	Description string
	Collection  string
	CreatedAt   time.Time
}

// RowSource fetches the period rows of a source.
type RowSource interface {
	FetchRows(ctx context.Context, sourceID string) ([]fiscal.Row, error)
}

// Catalog finds sources whose name or description mentions marker.
type Catalog interface {
	SearchSources(ctx context.Context, marker string) ([]SourceInfo, error)
}

// Backend is a read-only catalog of sources and their rows.
type Backend interface {
	RowSource
	Catalog
}

// Store is a writable catalog of sources and their rows.
type Store interface {
	Backend

	// SaveSource creates or updates a source.
	SaveSource(ctx context.Context, info SourceInfo) error

	// ReplaceRows atomically replaces all rows of a source.
	ReplaceRows(ctx context.Context, sourceID string, rows []fiscal.Row) error

	// ListSources returns every source ordered by name.
	ListSources(ctx context.Context) ([]SourceInfo, error)
}
