package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-autopilot/internal/types"
)

var eventColumns = []string{
	"run_id", "profile_id", "seq", "job_id", "status",
	"reason", "receipt_id", "company", "role", "created_at",
}

// SaveRun stores a run record and its events in one transaction.
// Events keep their slice order through the seq column.
func (db *DB) SaveRun(ctx context.Context, run *Run, events []types.ApplicationEvent) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO autopilot_runs (id, profile_id, trigger, status, summary, error, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.ProfileID, run.Trigger, run.Status, summary, nullIfEmpty(run.Error),
		run.StartedAt.UTC(), run.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(events) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"application_events"}, eventColumns,
			pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
				e := events[i]
				return []any{
					run.ID, run.ProfileID, i, e.JobID, string(e.Status),
					e.Reason, e.ReceiptID, e.Company, e.Role, e.Timestamp.UTC(),
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to insert %d events: %w", len(events), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, or nil if it does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, profile_id, trigger, status, summary, COALESCE(error, ''), started_at, completed_at
		 FROM autopilot_runs WHERE id = $1`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first. An empty profileID lists all profiles.
func (db *DB) ListRuns(ctx context.Context, profileID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, profile_id, trigger, status, summary, COALESCE(error, ''), started_at, completed_at
		 FROM autopilot_runs
		 WHERE ($1 = '' OR profile_id = $1)
		 ORDER BY started_at DESC LIMIT $2`,
		profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	var summary []byte
	if err := row.Scan(&run.ID, &run.ProfileID, &run.Trigger, &run.Status, &summary,
		&run.Error, &run.StartedAt, &run.CompletedAt); err != nil {
		return nil, err
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode run summary: %w", err)
		}
	}
	return &run, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
