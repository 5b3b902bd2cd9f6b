package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/sqlite"
)

var _ source.Store = (*sqlite.Store)(nil)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func twoPeriods() []fiscal.Row {
	return []fiscal.Row{
		{Year: 2025, Start: fiscal.NewDate(2025, 3, 1), End: fiscal.NewDate(2025, 3, 31), Period: 2, Quarter: 1},
		{Year: 2025, Start: fiscal.NewDate(2025, 2, 1), End: fiscal.NewDate(2025, 2, 28), Period: 1, Quarter: 1},
	}
}

func TestStore_SaveAndFetchRows(t *testing.T) {
	// GIVEN: A source with two rows saved out of order
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "Fiscal Calendar", Description: source.Marker}))
	require.NoError(t, store.ReplaceRows(ctx, "fc", twoPeriods()))

	// WHEN: Fetching
	rows, err := store.FetchRows(ctx, "fc")

	// THEN: Rows come back ordered by year and period, as civil dates
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Period)
	assert.Equal(t, fiscal.NewDate(2025, 2, 1), rows[0].Start)
	assert.Equal(t, fiscal.NewDate(2025, 3, 31), rows[1].End)

	cal, err := fiscal.Build(rows)
	require.NoError(t, err)
	assert.Equal(t, 9, cal.Years[2025].LastWeek().Number)
}

func TestStore_ReplaceRowsIsFullAndAtomic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "FC"}))
	require.NoError(t, store.ReplaceRows(ctx, "fc", twoPeriods()))

	// A duplicate period fails and leaves the old rows in place
	dup := append(twoPeriods(), twoPeriods()[0])
	err := store.ReplaceRows(ctx, "fc", dup)
	require.ErrorIs(t, err, fiscal.ErrMalformedInput)
	var rowErr *fiscal.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 2, rowErr.Index)

	rows, err := store.FetchRows(ctx, "fc")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// A successful replace drops the previous rows
	require.NoError(t, store.ReplaceRows(ctx, "fc", twoPeriods()[:1]))
	rows, err = store.FetchRows(ctx, "fc")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStore_UnknownSource(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.FetchRows(ctx, "missing")
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
	assert.ErrorIs(t, store.ReplaceRows(ctx, "missing", twoPeriods()), source.ErrSourceNotFound)
	_, err = store.GetSource(ctx, "missing")
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
	assert.ErrorIs(t, store.DeleteSource(ctx, "missing"), source.ErrSourceNotFound)
}

func TestStore_SearchAndListSources(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "1", Name: "Sales by week", Description: "not a calendar"}))
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "2", Name: "Retail calendar", Description: "Periods " + source.Marker, Collection: "System Queries"}))
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "3", Name: "Fiscal_calendar_source copy", Description: "underscore should not act as a wildcard"}))

	all, err := store.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Fiscal_calendar_source copy", all[0].Name)

	found, err := store.SearchSources(ctx, source.Marker)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2", found[0].ID)
	assert.Equal(t, "System Queries", found[0].Collection)

	r, err := source.NewDiscovery(store, source.Config{}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", r.ID)
}

func TestStore_SaveSourceUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "Old"}))
	first, err := store.GetSource(ctx, "fc")
	require.NoError(t, err)

	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "New", Description: source.Marker}))
	second, err := store.GetSource(ctx, "fc")
	require.NoError(t, err)

	assert.Equal(t, "New", second.Name)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestStore_DeleteCascadesRows(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "FC"}))
	require.NoError(t, store.ReplaceRows(ctx, "fc", twoPeriods()))

	require.NoError(t, store.DeleteSource(ctx, "fc"))
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "FC"}))

	rows, err := store.FetchRows(ctx, "fc")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_LoadRuns(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	started := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	run := sqlite.LoadRun{ID: "run-1", SourceID: "fc", Origin: "discovered", Status: sqlite.RunRunning, StartedAt: started}
	require.NoError(t, store.SaveLoadRun(ctx, run))

	done := started.Add(time.Second)
	run.Status, run.RowCount, run.IssueCount, run.CompletedAt = sqlite.RunCompleted, 24, 1, &done
	require.NoError(t, store.SaveLoadRun(ctx, run))

	failed := sqlite.LoadRun{ID: "run-2", SourceID: "fc", Origin: "cached", Status: sqlite.RunFailed, Error: "boom", StartedAt: started.Add(time.Hour)}
	require.NoError(t, store.SaveLoadRun(ctx, failed))

	runs, err := store.GetLoadRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID, "newest first")
	assert.Equal(t, "boom", runs[0].Error)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Equal(t, 24, runs[1].RowCount)
	require.NotNil(t, runs[1].CompletedAt)
	assert.True(t, done.Equal(*runs[1].CompletedAt))

	limited, err := store.GetLoadRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_FileDatabaseSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fiscal.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "FC"}))
	require.NoError(t, store.ReplaceRows(ctx, "fc", twoPeriods()))
	require.NoError(t, store.Close())

	// Migrations are idempotent on reopen
	store, err = sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()

	rows, err := store.FetchRows(ctx, "fc")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
