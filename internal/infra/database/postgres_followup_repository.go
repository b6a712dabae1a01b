package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tem_review_bot/internal/domain/followup"
)

var ErrFollowupNotFound = fmt.Errorf("followup not found")

type PostgresFollowupRepository struct {
	db *sql.DB
}

func NewPostgresFollowupRepository(db *sql.DB) *PostgresFollowupRepository {
	return &PostgresFollowupRepository{db: db}
}

// Upsert relies on the one-row-per-submission constraint: re-entering
// UNDER_REVIEW just resets the schedule.
func (r *PostgresFollowupRepository) Upsert(ctx context.Context, f *followup.Followup) error {
	query := `INSERT INTO followups (submission_id, due_at, interval_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (submission_id) DO UPDATE SET due_at = excluded.due_at, interval_seconds = excluded.interval_seconds
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, f.SubmissionID, f.DueAt, int64(f.Interval.Seconds())).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting followup: %w", err)
	}
	return nil
}

func (r *PostgresFollowupRepository) ListDue(ctx context.Context, now time.Time) ([]*followup.Followup, error) {
	query := `SELECT id, submission_id, due_at, interval_seconds, created_at
		FROM followups WHERE due_at <= $1 ORDER BY due_at`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error listing due followups: %w", err)
	}
	defer rows.Close()

	out := make([]*followup.Followup, 0)
	for rows.Next() {
		f := &followup.Followup{}
		var intervalSeconds int64
		if err := rows.Scan(&f.ID, &f.SubmissionID, &f.DueAt, &intervalSeconds, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning followup: %w", err)
		}
		f.Interval = time.Duration(intervalSeconds) * time.Second
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating followups: %w", err)
	}
	return out, nil
}

func (r *PostgresFollowupRepository) Reschedule(ctx context.Context, id int64, nextDue time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE followups SET due_at = $1 WHERE id = $2`, nextDue, id)
	if err != nil {
		return fmt.Errorf("error rescheduling followup: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrFollowupNotFound
	}
	return nil
}

func (r *PostgresFollowupRepository) DeleteBySubmission(ctx context.Context, submissionID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM followups WHERE submission_id = $1`, submissionID)
	if err != nil {
		return fmt.Errorf("error deleting followup: %w", err)
	}
	return nil
}
