package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// =============================================================================
// LOAD RUNS
// =============================================================================

// LoadRun status values.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// LoadRun records one attempt to load a calendar.
type LoadRun struct {
	ID          string
	SourceID    string
	Origin      string // override, cached, discovered
	Status      string // running, completed, failed
	RowCount    int
	IssueCount  int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveLoadRun creates or updates a load run.
func (s *Store) SaveLoadRun(ctx context.Context, r LoadRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO load_runs (id, source_id, origin, status, row_count, issue_count,
			error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			origin = excluded.origin,
			status = excluded.status,
			row_count = excluded.row_count,
			issue_count = excluded.issue_count,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		ts := r.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &ts
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.SourceID, r.Origin, r.Status, r.RowCount, r.IssueCount,
		nullString(r.Error), r.StartedAt.UTC().Format(time.RFC3339), completedAt,
	)
	return err
}

// GetLoadRuns returns the most recent load runs first. limit <= 0 means all.
func (s *Store) GetLoadRuns(ctx context.Context, limit int) ([]LoadRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, source_id, origin, status, row_count, issue_count, error, started_at, completed_at
		FROM load_runs
		ORDER BY started_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []LoadRun
	for rows.Next() {
		var r LoadRun
		var runErr, completedAt sql.NullString
		var startedAt string
		if err := rows.Scan(&r.ID, &r.SourceID, &r.Origin, &r.Status, &r.RowCount, &r.IssueCount,
			&runErr, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		r.Error = runErr.String
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
