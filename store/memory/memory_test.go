package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/memory"
)

var _ source.Store = (*memory.Memory)(nil)

func TestMemory_SaveReplaceFetch(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	require.NoError(t, m.SaveSource(ctx, source.SourceInfo{ID: "fc", Name: "Fiscal", Description: source.Marker}))
	rows := []fiscal.Row{{Year: 2025, Start: fiscal.NewDate(2025, 2, 1), End: fiscal.NewDate(2025, 2, 28), Period: 1, Quarter: 1}}
	require.NoError(t, m.ReplaceRows(ctx, "fc", rows))

	got, err := m.FetchRows(ctx, "fc")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	got[0].Year = 1999
	again, _ := m.FetchRows(ctx, "fc")
	assert.Equal(t, 2025, again[0].Year, "fetch returns a copy")
}

func TestMemory_UnknownSource(t *testing.T) {
	ctx := context.Background()
	m := memory.New()

	_, err := m.FetchRows(ctx, "nope")
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
	assert.ErrorIs(t, m.ReplaceRows(ctx, "nope", nil), source.ErrSourceNotFound)
	assert.Error(t, m.SaveSource(ctx, source.SourceInfo{}))
}

func TestMemory_SearchAndList(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	require.NoError(t, m.SaveSource(ctx, source.SourceInfo{ID: "b", Name: "Sales", Description: "weekly sales"}))
	require.NoError(t, m.SaveSource(ctx, source.SourceInfo{ID: "a", Name: "Calendar", Description: "FY " + source.Marker}))

	all, err := m.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Calendar", all[0].Name)
	assert.False(t, all[0].CreatedAt.IsZero())

	found, err := m.SearchSources(ctx, "[fiscal_calendar_source]")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a", found[0].ID)
}
