package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/quota"
	"github.com/jonathan/job-autopilot/internal/types"
)

// ListEvents returns stored events in recording order.
func (db *DB) ListEvents(ctx context.Context, f EventFilter) ([]types.ApplicationEvent, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProfileID != "" {
		add("profile_id = $%d", f.ProfileID)
	}
	if f.RunID != uuid.Nil {
		add("run_id = $%d", f.RunID)
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since.UTC())
	}
	if !f.Until.IsZero() {
		add("created_at < $%d", f.Until.UTC())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	args = append(args, limit)

	query := `SELECT job_id, status, reason, receipt_id, company, role, created_at FROM application_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at, run_id, seq LIMIT $%d", len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []types.ApplicationEvent
	for rows.Next() {
		var e types.ApplicationEvent
		var status string
		if err := rows.Scan(&e.JobID, &status, &e.Reason, &e.ReceiptID, &e.Company, &e.Role, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.Status, err = types.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("event for job %s: %w", e.JobID, err)
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountApplied counts submitted and retried events for a profile inside w.
func (db *DB) CountApplied(ctx context.Context, profileID string, w quota.Window) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM application_events
		 WHERE profile_id = $1 AND status IN ('submitted', 'retried')
		   AND created_at >= $2 AND created_at < $3`,
		profileID, w.Start, w.End,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications for %s: %w", profileID, err)
	}
	return n, nil
}

// ProcessedJobIDs returns every job ID the profile has any stored event for.
func (db *DB) ProcessedJobIDs(ctx context.Context, profileID string) (map[string]struct{}, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT job_id FROM application_events WHERE profile_id = $1`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed jobs for %s: %w", profileID, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan job id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}
