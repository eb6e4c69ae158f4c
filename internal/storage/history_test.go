package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/modcheck/internal/runner"
)

// Test Plan for Run History:
// - CreateSchema creates tables and records the schema version
// - CreateSchema is idempotent
// - RecordRun stores a run and its fixture results in fixture order
// - ListRuns returns newest first and honors the limit
// - NewRunRecord converts a runner summary, including fixture errors
// - Recording the same run id twice fails and leaves no partial rows
// - Prune keeps the newest runs and cascades to fixture results

func testRun(id string, started time.Time, fixtures ...FixtureRecord) *RunRecord {
	rec := &RunRecord{RunID: id, StartedAt: started, Duration: 1500 * time.Millisecond}
	for _, f := range fixtures {
		if f.Passed {
			rec.Passed++
		} else {
			rec.Failed++
		}
	}
	rec.Fixtures = fixtures
	return rec
}

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	// Second call is a no-op
	require.NoError(t, CreateSchema(db))

	var tables int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('runs', 'fixture_results', 'history_metadata')",
	).Scan(&tables))
	assert.Equal(t, 3, tables)
}

func TestGetSchemaVersion_NewDatabase(t *testing.T) {
	t.Parallel()

	h := NewTestHistory(t)
	_, err := h.db.Exec("DROP TABLE history_metadata")
	require.NoError(t, err)

	version, err := GetSchemaVersion(h.db)
	require.NoError(t, err)
	assert.Equal(t, "0", version)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewTestHistory(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)

	rec := testRun("run-1", started,
		FixtureRecord{Fixture: "b", Path: "f.yaml", Stage: "passed", Passed: true, Duration: 20 * time.Millisecond},
		FixtureRecord{Fixture: "a", Path: "f.yaml", Stage: "failed", Error: "fixture timed out", Duration: 30 * time.Millisecond},
	)
	require.NoError(t, h.RecordRun(ctx, rec))

	runs, err := h.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.True(t, started.Equal(runs[0].StartedAt))
	assert.Equal(t, 1500*time.Millisecond, runs[0].Duration)
	assert.Equal(t, 1, runs[0].Passed)
	assert.Equal(t, 1, runs[0].Failed)

	results, err := h.FixtureResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Fixture)
	assert.True(t, results[0].Passed)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "a", results[1].Fixture)
	assert.False(t, results[1].Passed)
	assert.Equal(t, "fixture timed out", results[1].Error)
	assert.Equal(t, 30*time.Millisecond, results[1].Duration)
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	t.Parallel()

	h := NewTestHistory(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.RecordRun(ctx, testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := h.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].RunID)
	assert.Equal(t, "run-3", runs[1].RunID)
}

func TestRecordRun_DuplicateLeavesNoPartialRows(t *testing.T) {
	t.Parallel()

	h := NewTestHistory(t)
	ctx := context.Background()

	first := testRun("dup", time.Now(), FixtureRecord{Fixture: "a", Stage: "passed", Passed: true})
	require.NoError(t, h.RecordRun(ctx, first))

	second := testRun("dup", time.Now(), FixtureRecord{Fixture: "z", Stage: "failed"})
	require.Error(t, h.RecordRun(ctx, second))

	results, err := h.FixtureResults(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Fixture)
}

func TestPrune(t *testing.T) {
	t.Parallel()

	h := NewTestHistory(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		rec := testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute),
			FixtureRecord{Fixture: "f", Stage: "passed", Passed: true})
		require.NoError(t, h.RecordRun(ctx, rec))
	}

	deleted, err := h.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	runs, err := h.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-3", runs[0].RunID)

	var orphans int
	require.NoError(t, h.db.QueryRow("SELECT COUNT(*) FROM fixture_results WHERE run_id != 'run-3'").Scan(&orphans))
	assert.Zero(t, orphans)

	_, err = h.Prune(ctx, -1)
	assert.Error(t, err)
}

func TestNewRunRecord(t *testing.T) {
	t.Parallel()

	summary := &runner.Summary{
		RunID:     "abc",
		StartedAt: time.Now(),
		Duration:  time.Second,
		Skipped:   2,
		Results: []*runner.Result{
			{Fixture: "ok", Path: "a.yaml", Stage: runner.StagePassed},
			{Fixture: "bad", Path: "a.yaml", Stage: runner.StageFailed, Err: errors.New("boom")},
		},
	}

	rec := NewRunRecord(summary)
	assert.Equal(t, "abc", rec.RunID)
	assert.Equal(t, 1, rec.Passed)
	assert.Equal(t, 1, rec.Failed)
	assert.Equal(t, 2, rec.Skipped)
	require.Len(t, rec.Fixtures, 2)
	assert.Equal(t, "passed", rec.Fixtures[0].Stage)
	assert.True(t, rec.Fixtures[0].Passed)
	assert.Equal(t, "boom", rec.Fixtures[1].Error)
}
