package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
)

// processingLog implements driven.ProcessingLog.
type processingLog struct {
	store *Store
}

var _ driven.ProcessingLog = (*processingLog)(nil)

// Record stores a run and its warnings in one transaction.
func (l *processingLog) Record(ctx context.Context, run domain.StageRun) error {
	if run.ID == "" || run.DocID == "" {
		return fmt.Errorf("%w: run id and doc id are required", domain.ErrInvalidInput)
	}

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stage_runs (id, doc_id, stage, status, elements_before, elements_after,
			error, started_at, finished_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM stage_runs WHERE doc_id = ?))
	`, run.ID, run.DocID, run.Stage, string(run.Status), run.ElementsBefore, run.ElementsAfter,
		run.Error, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.DocID)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, w := range run.Warnings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stage_warnings (run_id, position, code, stage, message, element_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, string(w.Code), w.Stage, w.Message, w.ElementID)
		if err != nil {
			return fmt.Errorf("inserting warning: %w", err)
		}
	}

	return tx.Commit()
}

// Runs returns a document's runs, oldest first.
func (l *processingLog) Runs(ctx context.Context, docID string) ([]domain.StageRun, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT id, doc_id, stage, status, elements_before, elements_after, error, started_at, finished_at
		FROM stage_runs WHERE doc_id = ? ORDER BY seq
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.StageRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Warnings, err = l.warnings(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Latest returns the most recent run for a document.
func (l *processingLog) Latest(ctx context.Context, docID string) (*domain.StageRun, error) {
	row := l.store.db.QueryRowContext(ctx, `
		SELECT id, doc_id, stage, status, elements_before, elements_after, error, started_at, finished_at
		FROM stage_runs WHERE doc_id = ? ORDER BY seq DESC LIMIT 1
	`, docID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if run.Warnings, err = l.warnings(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

func (l *processingLog) warnings(ctx context.Context, runID string) ([]domain.Warning, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT code, stage, message, element_id
		FROM stage_warnings WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying warnings: %w", err)
	}
	defer rows.Close()

	var out []domain.Warning
	for rows.Next() {
		var (
			w    domain.Warning
			code string
		)
		if err := rows.Scan(&code, &w.Stage, &w.Message, &w.ElementID); err != nil {
			return nil, fmt.Errorf("scanning warning: %w", err)
		}
		w.Code = domain.WarningCode(code)
		out = append(out, w)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*domain.StageRun, error) {
	var (
		run               domain.StageRun
		status            string
		started, finished string
	)
	err := s.Scan(&run.ID, &run.DocID, &run.Stage, &status, &run.ElementsBefore,
		&run.ElementsAfter, &run.Error, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns the zero time for unparsable values.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
