package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tem_review_bot/internal/domain/assignment"
)

var ErrAssignmentNotFound = fmt.Errorf("assignment not found")

type PostgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

// Create inserts the assignment and its history entry in one transaction so
// the workload window never misses an assignment that was actually made.
func (r *PostgresAssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting assignment transaction: %w", err)
	}
	defer tx.Rollback()

	if a.Status == "" {
		a.Status = assignment.StatusProposed
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO assignments (submission_id, reviewer_handle, status)
		 VALUES ($1, $2, $3) RETURNING id, assigned_at`,
		a.SubmissionID, a.ReviewerHandle, a.Status,
	).Scan(&a.ID, &a.AssignedAt)
	if err != nil {
		return fmt.Errorf("error creating assignment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignment_history (submission_id, reviewer_handle) VALUES ($1, $2)`,
		a.SubmissionID, a.ReviewerHandle)
	if err != nil {
		return fmt.Errorf("error appending assignment history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing assignment: %w", err)
	}
	return nil
}

func (r *PostgresAssignmentRepository) Get(ctx context.Context, submissionID int64, reviewerHandle string) (*assignment.Assignment, error) {
	query := `SELECT id, submission_id, reviewer_handle, status, assigned_at, responded_at, done_at
		FROM assignments
		WHERE submission_id = $1 AND reviewer_handle = $2
		ORDER BY id DESC LIMIT 1`
	a := &assignment.Assignment{}
	err := r.db.QueryRowContext(ctx, query, submissionID, reviewerHandle).Scan(
		&a.ID, &a.SubmissionID, &a.ReviewerHandle, &a.Status, &a.AssignedAt, &a.RespondedAt, &a.DoneAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error getting assignment: %w", err)
	}
	return a, nil
}

func (r *PostgresAssignmentRepository) ListBySubmission(ctx context.Context, submissionID int64) ([]*assignment.Assignment, error) {
	query := `SELECT id, submission_id, reviewer_handle, status, assigned_at, responded_at, done_at
		FROM assignments WHERE submission_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	defer rows.Close()

	out := make([]*assignment.Assignment, 0)
	for rows.Next() {
		a := &assignment.Assignment{}
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.ReviewerHandle, &a.Status,
			&a.AssignedAt, &a.RespondedAt, &a.DoneAt); err != nil {
			return nil, fmt.Errorf("error scanning assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return out, nil
}

func (r *PostgresAssignmentRepository) UpdateStatus(ctx context.Context, submissionID int64, reviewerHandle string, status assignment.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET status = $1, responded_at = NOW()
		 WHERE submission_id = $2 AND reviewer_handle = $3`,
		status, submissionID, reviewerHandle)
	if err != nil {
		return fmt.Errorf("error updating assignment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *PostgresAssignmentRepository) MarkDone(ctx context.Context, submissionID int64, reviewerHandle string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET status = $1, done_at = NOW()
		 WHERE submission_id = $2 AND reviewer_handle = $3`,
		assignment.StatusDone, submissionID, reviewerHandle)
	if err != nil {
		return fmt.Errorf("error marking assignment done: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *PostgresAssignmentRepository) DeleteUnaccepted(ctx context.Context, submissionID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM assignments WHERE submission_id = $1 AND status IN ($2, $3)`,
		submissionID, assignment.StatusProposed, assignment.StatusDeclined)
	if err != nil {
		return fmt.Errorf("error deleting unaccepted assignments: %w", err)
	}
	return nil
}

func (r *PostgresAssignmentRepository) CountByReviewerSince(ctx context.Context, cutoff time.Time) (map[string]int, error) {
	query := `SELECT reviewer_handle, COUNT(*) FROM assignment_history
		WHERE assigned_at >= $1 GROUP BY reviewer_handle`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error counting assignment history: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var handle string
		var n int
		if err := rows.Scan(&handle, &n); err != nil {
			return nil, fmt.Errorf("error scanning history count: %w", err)
		}
		counts[handle] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history counts: %w", err)
	}
	return counts, nil
}
