package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tem_review_bot/internal/domain/contentreq"
)

var ErrContentRequestNotFound = fmt.Errorf("content request not found")

type PostgresContentRequestRepository struct {
	db *sql.DB
}

func NewPostgresContentRequestRepository(db *sql.DB) *PostgresContentRequestRepository {
	return &PostgresContentRequestRepository{db: db}
}

func (r *PostgresContentRequestRepository) Create(ctx context.Context, req *contentreq.Request) error {
	if req.Status == "" {
		req.Status = contentreq.StatusPending
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO content_requests (submission_id, deadline_at, status)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		req.SubmissionID, req.DeadlineAt, req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating content request: %w", err)
	}
	return nil
}

func (r *PostgresContentRequestRepository) GetBySubmission(ctx context.Context, submissionID int64) (*contentreq.Request, error) {
	req := &contentreq.Request{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, submission_id, deadline_at, status, created_at, resolved_at
		 FROM content_requests WHERE submission_id = $1`, submissionID,
	).Scan(&req.ID, &req.SubmissionID, &req.DeadlineAt, &req.Status, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrContentRequestNotFound
		}
		return nil, fmt.Errorf("error getting content request: %w", err)
	}
	return req, nil
}

// Resolve is a compare-and-set: only a PENDING request transitions, so the
// first of a racing pair wins and the loser sees resolved=false.
func (r *PostgresContentRequestRepository) Resolve(ctx context.Context, submissionID int64, status contentreq.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE content_requests SET status = $1, resolved_at = NOW()
		 WHERE submission_id = $2 AND status = $3`,
		status, submissionID, contentreq.StatusPending)
	if err != nil {
		return false, fmt.Errorf("error resolving content request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking content request resolution: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresContentRequestRepository) ListExpired(ctx context.Context, now time.Time) ([]*contentreq.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, submission_id, deadline_at, status, created_at, resolved_at
		 FROM content_requests WHERE status = $1 AND deadline_at <= $2 ORDER BY deadline_at`,
		contentreq.StatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("error listing expired content requests: %w", err)
	}
	defer rows.Close()

	out := make([]*contentreq.Request, 0)
	for rows.Next() {
		req := &contentreq.Request{}
		if err := rows.Scan(&req.ID, &req.SubmissionID, &req.DeadlineAt, &req.Status,
			&req.CreatedAt, &req.ResolvedAt); err != nil {
			return nil, fmt.Errorf("error scanning content request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content requests: %w", err)
	}
	return out, nil
}
