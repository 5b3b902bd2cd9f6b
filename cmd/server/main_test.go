package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fiscal-calendar/store/s3source"
	"github.com/warp/fiscal-calendar/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRows_SQLiteUsesStore(t *testing.T) {
	// GIVEN: The default row backend
	store := newTestStore(t)

	// WHEN: Opening rows
	rows, closer, err := openRows(context.Background(), options{rows: "sqlite"}, store)

	// THEN: The SQLite store serves catalog and rows
	require.NoError(t, err)
	assert.Same(t, store, rows)
	assert.NoError(t, closer.Close())
}

func TestOpenRows_S3(t *testing.T) {
	store := newTestStore(t)

	// GIVEN: An S3 backend with a bucket and region
	opts := options{rows: "s3", s3Bucket: "finance-data", s3Prefix: "calendars/", awsRegion: "us-east-1"}

	// WHEN: Opening rows
	rows, closer, err := openRows(context.Background(), opts, store)

	// THEN: The bucket serves catalog and rows
	require.NoError(t, err)
	assert.IsType(t, &s3source.Source{}, rows)
	assert.NoError(t, closer.Close())
}

func TestOpenRows_Errors(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name string
		opts options
	}{
		{name: "s3 without bucket", opts: options{rows: "s3", awsRegion: "us-east-1"}},
		{name: "postgres without dsn or iam host", opts: options{rows: "postgres", awsRegion: "us-east-1"}},
		{name: "unknown backend", opts: options{rows: "bigquery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// WHEN: Opening rows with incomplete options
			rows, _, err := openRows(context.Background(), tt.opts, store)

			// THEN: Startup fails before any load
			assert.Error(t, err)
			assert.Nil(t, rows)
		})
	}
}
