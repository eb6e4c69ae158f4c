package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/modcheck/internal/runner"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// History persists run summaries to SQLite.
type History struct {
	db *sql.DB
}

// RunRecord is a stored run summary.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Skipped   int
	Fixtures  []FixtureRecord
}

// FixtureRecord is a stored fixture outcome.
type FixtureRecord struct {
	Fixture  string
	Path     string
	Stage    string
	Passed   bool
	Error    string
	Duration time.Duration
}

// NewRunRecord converts a runner summary for storage.
func NewRunRecord(s *runner.Summary) *RunRecord {
	rec := &RunRecord{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		Duration:  s.Duration,
		Passed:    s.Passed(),
		Failed:    s.Failed(),
		Skipped:   s.Skipped,
	}
	for _, r := range s.Results {
		f := FixtureRecord{
			Fixture:  r.Fixture,
			Path:     r.Path,
			Stage:    string(r.Stage),
			Passed:   r.Passed(),
			Duration: r.Duration,
		}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		rec.Fixtures = append(rec.Fixtures, f)
	}
	return rec
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// RecordRun stores a run and its fixture results in one transaction.
func (h *History) RecordRun(ctx context.Context, rec *RunRecord) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	_, err = sq.Insert("runs").
		Columns("run_id", "started_at", "duration_ms", "passed", "failed", "skipped").
		Values(
			rec.RunID,
			rec.StartedAt.UTC().Format(timeLayout),
			rec.Duration.Milliseconds(),
			rec.Passed,
			rec.Failed,
			rec.Skipped,
		).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to write run %s: %w", rec.RunID, err)
	}

	for i, f := range rec.Fixtures {
		var errText sql.NullString
		if f.Error != "" {
			errText = sql.NullString{String: f.Error, Valid: true}
		}
		_, err := sq.Insert("fixture_results").
			Columns("run_id", "position", "fixture", "path", "stage", "passed", "error", "duration_ms").
			Values(rec.RunID, i, f.Fixture, f.Path, f.Stage, f.Passed, errText, f.Duration.Milliseconds()).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to write result for fixture %s: %w", f.Fixture, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", rec.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first, without fixture results.
// A limit of zero returns every run.
func (h *History) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := sq.Select("run_id", "started_at", "duration_ms", "passed", "failed", "skipped").
		From("runs").
		OrderBy("started_at DESC", "run_id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	rows, err := q.RunWith(h.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			rec        RunRecord
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&rec.RunID, &startedAt, &durationMS, &rec.Passed, &rec.Failed, &rec.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid started_at for run %s: %w", rec.RunID, err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// FixtureResults returns the stored fixture results of a run in fixture order.
func (h *History) FixtureResults(ctx context.Context, runID string) ([]FixtureRecord, error) {
	rows, err := sq.Select("fixture", "path", "stage", "passed", "error", "duration_ms").
		From("fixture_results").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		RunWith(h.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query results of run %s: %w", runID, err)
	}
	defer rows.Close()

	var results []FixtureRecord
	for rows.Next() {
		var (
			f          FixtureRecord
			errText    sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&f.Fixture, &f.Path, &f.Stage, &f.Passed, &errText, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan fixture result: %w", err)
		}
		f.Error = errText.String
		f.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fixture results: %w", err)
	}
	return results, nil
}

// Prune deletes all but the newest keep runs. Fixture results cascade.
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}
	newest := sq.Select("run_id").From("runs").OrderBy("started_at DESC", "run_id").Limit(uint64(keep))
	sub, args, err := newest.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build prune query: %w", err)
	}

	res, err := sq.Delete("runs").
		Where("run_id NOT IN ("+sub+")", args...).
		RunWith(h.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}
