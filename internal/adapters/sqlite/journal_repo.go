// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/stackup/internal/ports/secondary"
)

// JournalRepository implements secondary.Journal with SQLite.
type JournalRepository struct {
	db *sql.DB
}

// NewJournalRepository creates a new SQLite journal repository.
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// StartRun persists a new run in the running state.
func (r *JournalRepository) StartRun(ctx context.Context, run *secondary.RunRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, project, target_phase, status) VALUES (?, ?, ?, 'running')",
		run.ID, run.Project, run.Target,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun sets the terminal status of a run.
func (r *JournalRepository) FinishRun(ctx context.Context, id, status, errMsg string) error {
	var errText sql.NullString
	if errMsg != "" {
		errText = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, errText, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordPhase stores the final state of a phase, replacing an earlier record
// for the same run and phase.
func (r *JournalRepository) RecordPhase(ctx context.Context, rec *secondary.PhaseRecord) error {
	var detail sql.NullString
	if rec.Detail != "" {
		detail = sql.NullString{String: rec.Detail, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO run_phases (run_id, phase_id, status, skipped, detail) VALUES (?, ?, ?, ?, ?)",
		rec.RunID, rec.PhaseID, rec.Status, rec.Skipped, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record phase: %w", err)
	}
	return nil
}

// RecordArtifact stores one artifact outcome.
func (r *JournalRepository) RecordArtifact(ctx context.Context, rec *secondary.ArtifactRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO run_artifacts (run_id, phase_id, path, strategy, result) VALUES (?, ?, ?, ?, ?)",
		rec.RunID, rec.PhaseID, rec.Path, rec.Strategy, rec.Result,
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}
	return nil
}

// ListRuns returns runs matching filters, newest first.
func (r *JournalRepository) ListRuns(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	query := "SELECT id, project, target_phase, status, error, started_at, finished_at FROM runs WHERE 1=1"
	args := []any{}

	if filters.Project != "" {
		query += " AND project = ?"
		args = append(args, filters.Project)
	}

	query += " ORDER BY started_at DESC, rowid DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		var (
			errText    sql.NullString
			startedAt  time.Time
			finishedAt sql.NullTime
		)
		run := &secondary.RunRecord{}
		if err := rows.Scan(&run.ID, &run.Project, &run.Target, &run.Status, &errText, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Error = errText.String
		run.StartedAt = startedAt.Format(time.RFC3339)
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time.Format(time.RFC3339)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// ListPhases returns the phases recorded for a run in recording order.
func (r *JournalRepository) ListPhases(ctx context.Context, runID string) ([]*secondary.PhaseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT run_id, phase_id, status, skipped, detail, finished_at FROM run_phases WHERE run_id = ? ORDER BY rowid",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	var phases []*secondary.PhaseRecord
	for rows.Next() {
		var (
			detail     sql.NullString
			finishedAt time.Time
		)
		rec := &secondary.PhaseRecord{}
		if err := rows.Scan(&rec.RunID, &rec.PhaseID, &rec.Status, &rec.Skipped, &detail, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		rec.Detail = detail.String
		rec.FinishedAt = finishedAt.Format(time.RFC3339)
		phases = append(phases, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phases: %w", err)
	}
	return phases, nil
}

// ListArtifacts returns the artifacts recorded for a run in application order.
func (r *JournalRepository) ListArtifacts(ctx context.Context, runID string) ([]*secondary.ArtifactRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT run_id, phase_id, path, strategy, result FROM run_artifacts WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*secondary.ArtifactRecord
	for rows.Next() {
		rec := &secondary.ArtifactRecord{}
		if err := rows.Scan(&rec.RunID, &rec.PhaseID, &rec.Path, &rec.Strategy, &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifacts: %w", err)
	}
	return artifacts, nil
}

// Ensure JournalRepository implements the interface
var _ secondary.Journal = (*JournalRepository)(nil)
