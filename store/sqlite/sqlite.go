/*
Package sqlite provides a SQLite-backed source.Store.

PURPOSE:
  Keeps fiscal calendar sources and their period rows locally, so a
  calendar can be imported once (CLI, HTTP upload, seeding) and discovered
  by marker afterwards. Also records calendar load runs.

INTERFACES IMPLEMENTED:
  source.RowSource: FetchRows
  source.Catalog:   SearchSources
  source.Store:     SaveSource, ReplaceRows, ListSources

KEY TABLES:
  calendar_sources: One row per source (id, name, description, collection)
  calendar_rows:    Period rows, UNIQUE(source_id, fiscal_year, period)
  load_runs:        History of calendar loads (see runs.go)

FULL REPLACE:
  ReplaceRows deletes and re-inserts a source's rows in one transaction.
  A calendar is never patched row by row, matching how it is rebuilt.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so that
  ":memory:" databases keep their schema across calls.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/fiscal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  loader := source.NewLoader(source.NewDiscovery(store, source.Config{}), store)

MIGRATION:
  Versioned goose migrations are embedded (migrations/*.sql) and applied
  on New().

SEE ALSO:
  - source/source.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Store implements source.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose sqlite dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// =============================================================================
// SOURCES
// =============================================================================

// SaveSource creates or updates a source. created_at is kept on update.
func (s *Store) SaveSource(ctx context.Context, info source.SourceInfo) error {
	if info.ID == "" {
		return fmt.Errorf("source id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO calendar_sources (id, name, description, collection, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			collection = excluded.collection,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	created := info.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := s.db.ExecContext(ctx, query,
		info.ID, info.Name, info.Description, info.Collection,
		created.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	return err
}

// GetSource retrieves a source by ID.
func (s *Store) GetSource(ctx context.Context, id string) (*source.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info source.SourceInfo
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, collection, created_at FROM calendar_sources WHERE id = ?",
		id,
	).Scan(&info.ID, &info.Name, &info.Description, &info.Collection, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", source.ErrSourceNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &info, nil
}

// ListSources returns all sources ordered by name.
func (s *Store) ListSources(ctx context.Context) ([]source.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySources(ctx,
		"SELECT id, name, description, collection, created_at FROM calendar_sources ORDER BY name, id",
	)
}

// SearchSources returns sources whose name or description contains marker,
// case-insensitively.
func (s *Store) SearchSources(ctx context.Context, marker string) ([]source.SourceInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + escapeLike(strings.ToLower(marker)) + "%"
	return s.querySources(ctx, `
		SELECT id, name, description, collection, created_at
		FROM calendar_sources
		WHERE LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'
		ORDER BY name, id
	`, pattern, pattern)
}

// DeleteSource removes a source and, by cascade, its rows.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM calendar_sources WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", source.ErrSourceNotFound, id)
	}
	return nil
}

func (s *Store) querySources(ctx context.Context, query string, args ...any) ([]source.SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []source.SourceInfo
	for rows.Next() {
		var info source.SourceInfo
		var createdAt string
		if err := rows.Scan(&info.ID, &info.Name, &info.Description, &info.Collection, &createdAt); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sources = append(sources, info)
	}
	return sources, rows.Err()
}

// =============================================================================
// ROWS
// =============================================================================

// ReplaceRows atomically replaces all rows of a source.
func (s *Store) ReplaceRows(ctx context.Context, sourceID string, rows []fiscal.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_sources WHERE id = ?", sourceID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", source.ErrSourceNotFound, sourceID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM calendar_rows WHERE source_id = ?", sourceID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calendar_rows (source_id, fiscal_year, start_date, end_date, period, quarter)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx, sourceID, r.Year,
			fiscal.DateKey(r.Start), fiscal.DateKey(r.End), r.Period, r.Quarter)
		if isUniqueConstraintError(err) {
			return &fiscal.RowError{
				Index:  i,
				Field:  "PERIOD",
				Reason: fmt.Sprintf("period %d of year %d appears more than once", r.Period, r.Year),
			}
		}
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FetchRows returns the rows of a source ordered by year and period.
func (s *Store) FetchRows(ctx context.Context, sourceID string) ([]fiscal.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_sources WHERE id = ?", sourceID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", source.ErrSourceNotFound, sourceID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fiscal_year, start_date, end_date, period, quarter
		FROM calendar_rows
		WHERE source_id = ?
		ORDER BY fiscal_year, period
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fiscal.Row
	for rows.Next() {
		var r fiscal.Row
		var start, end string
		if err := rows.Scan(&r.Year, &start, &end, &r.Period, &r.Quarter); err != nil {
			return nil, err
		}
		if r.Start, err = fiscal.ParseDate(start); err != nil {
			return nil, fmt.Errorf("%w: stored start_date: %v", fiscal.ErrMalformedInput, err)
		}
		if r.End, err = fiscal.ParseDate(end); err != nil {
			return nil, fmt.Errorf("%w: stored end_date: %v", fiscal.ErrMalformedInput, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reset deletes all sources, rows and load runs.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"calendar_rows", "calendar_sources", "load_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
