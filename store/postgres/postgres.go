/*
Package postgres reads fiscal calendar rows from a PostgreSQL warehouse.

PURPOSE:
  Many teams keep their fiscal calendar as a table or view in the
  warehouse. This package exposes such tables as a source.RowSource and
  finds them through table comments as a source.Catalog.

SOURCE IDS:
  A source id is a table or view name, optionally schema-qualified
  ("finance.fiscal_calendar"). Names are validated and quoted; they are
  never interpolated raw.

DISCOVERY:
  Tag a table for discovery with a comment holding the marker:

    COMMENT ON VIEW finance.fiscal_calendar IS
      'Retail 4-4-5 calendar [FISCAL_CALENDAR_SOURCE]';

  SearchSources reports the schema as the collection.

COLUMNS:
  The table must expose YEAR, START_DATE, END_DATE, PERIOD and QUARTER
  (any case). Other columns are ignored.

SEE ALSO:
  - iam.go: DSN with an IAM authentication token for managed databases
  - factory/rows.go: Value coercion shared by every source
*/
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/warp/fiscal-calendar/factory"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
)

// ErrInvalidIdentifier is returned for source ids that are not plain
// (optionally schema-qualified) identifiers.
var ErrInvalidIdentifier = fmt.Errorf("%w: invalid table name", source.ErrSourceNotFound)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

var _ source.Backend = (*Source)(nil)

// Source implements source.Backend over a database.
type Source struct {
	db      *sql.DB
	factory *factory.RowFactory
}

// New wraps an open database. The caller owns db.
func New(db *sql.DB) *Source {
	return &Source{db: db, factory: factory.NewRowFactory()}
}

// Open opens and pings a PostgreSQL database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// QuoteTable validates a possibly schema-qualified table name and returns
// it quoted for use in SQL.
func QuoteTable(name string) (string, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		if !identifierPattern.MatchString(p) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
		quoted[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(quoted, "."), nil
}

// FetchRows reads every row of the table named by sourceID.
func (s *Source) FetchRows(ctx context.Context, sourceID string) ([]fiscal.Row, error) {
	table, err := QuoteTable(sourceID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("%w: %s", source.ErrSourceNotFound, sourceID)
		}
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var values [][]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		values = append(values, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return s.factory.FromTable(columns, values)
}

// SearchSources lists tables, views and materialized views whose comment
// contains marker, case-insensitively.
func (s *Source) SearchSources(ctx context.Context, marker string) ([]source.SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.nspname, c.relname, obj_description(c.oid, 'pg_class')
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'v', 'm')
		  AND strpos(lower(obj_description(c.oid, 'pg_class')), lower($1)) > 0
		ORDER BY n.nspname, c.relname
	`, marker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []source.SourceInfo
	for rows.Next() {
		var schema, name, comment string
		if err := rows.Scan(&schema, &name, &comment); err != nil {
			return nil, err
		}
		found = append(found, source.SourceInfo{
			ID:          schema + "." + name,
			Name:        name,
			Description: comment,
			Collection:  schema,
		})
	}
	return found, rows.Err()
}

// undefined_table
func isUndefinedTable(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "42P01"
}
