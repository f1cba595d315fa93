// Package store handles SQLite persistence of merge run history.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/gpxmerge/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Fixed-width UTC timestamps keep started_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			output_path TEXT NOT NULL,
			filter TEXT NOT NULL,
			sources INTEGER NOT NULL,
			tracks INTEGER NOT NULL,
			waypoints INTEGER NOT NULL,
			routes INTEGER NOT NULL,
			tracks_excluded INTEGER NOT NULL,
			waypoints_excluded INTEGER NOT NULL,
			bad_timestamps INTEGER NOT NULL,
			success INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_failures (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			source_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a run report and its failures and returns the new run id.
func (s *Store) InsertRun(ctx context.Context, report model.Report) (id string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	id = uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, output_path, filter, sources, tracks, waypoints, routes, tracks_excluded, waypoints_excluded, bad_timestamps, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		report.OutputPath,
		report.Filter,
		report.Sources,
		report.Tracks,
		report.Waypoints,
		report.Routes,
		report.TracksExcluded,
		report.WaypointsExcluded,
		report.BadTimestamps,
		boolToInt(report.Success),
	)
	if err != nil {
		return "", err
	}

	if len(report.Failures) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_failures (run_id, position, source_id, reason) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, f := range report.Failures {
			if _, err = stmt.ExecContext(ctx, id, i, f.SourceID, f.Reason); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, r.finished_at, r.output_path, r.filter, r.sources, r.tracks, r.waypoints, r.routes,
			r.tracks_excluded, r.waypoints_excluded, r.bad_timestamps, r.success,
			(SELECT COUNT(*) FROM run_failures f WHERE f.run_id = r.id) AS failures
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var rec model.RunRecord
		var startedAt, finishedAt string
		var success int
		r := &rec.Report
		if err := rows.Scan(&rec.ID, &startedAt, &finishedAt, &r.OutputPath, &r.Filter, &r.Sources, &r.Tracks, &r.Waypoints, &r.Routes,
			&r.TracksExcluded, &r.WaypointsExcluded, &r.BadTimestamps, &success, &rec.FailureCount); err != nil {
			return nil, err
		}
		r.Success = success != 0
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListFailures returns the failed sources of a run in report order.
func (s *Store) ListFailures(ctx context.Context, runID string) ([]model.SourceFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, reason FROM run_failures WHERE run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var failures []model.SourceFailure
	for rows.Next() {
		var f model.SourceFailure
		if err := rows.Scan(&f.SourceID, &f.Reason); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return failures, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
