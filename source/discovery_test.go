package source_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-calendar/source"
	"github.com/warp/fiscal-calendar/store/memory"
)

// countingCatalog counts searches and can fail on demand.
type countingCatalog struct {
	source.Catalog
	searches int
	err      error
}

func (c *countingCatalog) SearchSources(ctx context.Context, marker string) ([]source.SourceInfo, error) {
	c.searches++
	if c.err != nil {
		return nil, c.err
	}
	return c.Catalog.SearchSources(ctx, marker)
}

func seededCatalog(t *testing.T, infos ...source.SourceInfo) *countingCatalog {
	t.Helper()
	m := memory.New()
	for _, info := range infos {
		require.NoError(t, m.SaveSource(context.Background(), info))
	}
	return &countingCatalog{Catalog: m}
}

func TestDiscovery_OverrideSkipsSearch(t *testing.T) {
	catalog := seededCatalog(t)
	d := source.NewDiscovery(catalog, source.Config{Override: " 42 "})

	r, err := d.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", r.ID)
	assert.Equal(t, source.OriginOverride, r.Origin)
	assert.Equal(t, 0, catalog.searches)
}

func TestDiscovery_PrefersKnownCollections(t *testing.T) {
	// GIVEN: Two marked sources, the second in a "System Queries" collection
	catalog := seededCatalog(t,
		source.SourceInfo{ID: "1", Name: "A calendar", Description: "copy " + source.Marker, Collection: "Scratch"},
		source.SourceInfo{ID: "2", Name: "B calendar", Description: source.Marker, Collection: "Shared / system queries"},
		source.SourceInfo{ID: "3", Name: "Mentions marker in name only " + source.Marker},
	)
	d := source.NewDiscovery(catalog, source.Config{})

	// WHEN: Resolving
	r, err := d.Resolve(context.Background())

	// THEN: The preferred collection wins over list order
	require.NoError(t, err)
	assert.Equal(t, "2", r.ID)
	assert.Equal(t, source.OriginDiscovered, r.Origin)
}

func TestDiscovery_FirstMarkedMatchWithoutPreferred(t *testing.T) {
	catalog := seededCatalog(t,
		source.SourceInfo{ID: "x", Name: "Alpha", Description: source.Marker},
		source.SourceInfo{ID: "y", Name: "Beta", Description: source.Marker},
	)
	r, err := source.NewDiscovery(catalog, source.Config{}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", r.ID)
}

func TestDiscovery_CachesUntilCleared(t *testing.T) {
	catalog := seededCatalog(t, source.SourceInfo{ID: "x", Name: "Alpha", Description: source.Marker})
	d := source.NewDiscovery(catalog, source.Config{})
	ctx := context.Background()

	_, err := d.Resolve(ctx)
	require.NoError(t, err)
	r, err := d.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, source.OriginCached, r.Origin)
	assert.Equal(t, 1, catalog.searches)

	d.ClearCache()
	r, err = d.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, source.OriginDiscovered, r.Origin)
	assert.Equal(t, 2, catalog.searches)
}

func TestDiscovery_NotFoundAndSearchFailure(t *testing.T) {
	ctx := context.Background()

	_, err := source.NewDiscovery(seededCatalog(t), source.Config{}).Resolve(ctx)
	assert.ErrorIs(t, err, source.ErrSourceNotFound)

	_, err = source.NewDiscovery(nil, source.Config{}).Resolve(ctx)
	assert.ErrorIs(t, err, source.ErrSourceNotFound)

	boom := errors.New("search unavailable")
	failing := seededCatalog(t)
	failing.err = boom
	_, err = source.NewDiscovery(failing, source.Config{}).Resolve(ctx)
	assert.ErrorIs(t, err, boom)
}
