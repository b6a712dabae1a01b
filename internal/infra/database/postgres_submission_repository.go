package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tem_review_bot/internal/domain/submission"

	"github.com/lib/pq"
)

// Custom errors
var ErrSubmissionNotFound = fmt.Errorf("submission not found")
var ErrDuplicateSubmission = fmt.Errorf("submission with this external message ID already exists")

const submissionColumns = `id, external_message_id, external_thread_id, title, author_name,
	author_email, source_url, content, status, publish_date, accepted_at, rejected_at,
	created_at, updated_at`

type PostgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) *PostgresSubmissionRepository {
	return &PostgresSubmissionRepository{db: db}
}

func (r *PostgresSubmissionRepository) Create(ctx context.Context, s *submission.Submission) error {
	query := `INSERT INTO submissions
		(external_message_id, external_thread_id, title, author_name, author_email, source_url, content, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	if s.Status == "" {
		s.Status = submission.StatusNew
	}

	err := r.db.QueryRowContext(ctx, query,
		s.ExternalMessageID, s.ExternalThreadID, s.Title, s.AuthorName,
		s.AuthorEmail, s.SourceURL, s.Content, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("error creating submission: %w", err)
	}
	return nil
}

func (r *PostgresSubmissionRepository) GetByID(ctx context.Context, id int64) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresSubmissionRepository) GetByExternalMessageID(ctx context.Context, externalID string) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE external_message_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, externalID))
}

func (r *PostgresSubmissionRepository) FindActiveByKeyword(ctx context.Context, keyword string) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE (title ILIKE '%' || $1 || '%' OR author_name ILIKE '%' || $1 || '%')
		AND NOT (status = ANY($2))
		ORDER BY id`
	terminal := pq.Array([]string{string(submission.StatusPublished), string(submission.StatusRejected)})
	rows, err := r.db.QueryContext(ctx, query, keyword, terminal)
	if err != nil {
		return nil, fmt.Errorf("error finding submissions by keyword: %w", err)
	}
	return r.scanAll(rows)
}

func (r *PostgresSubmissionRepository) ListActive(ctx context.Context) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE NOT (status = ANY($1)) ORDER BY id`
	terminal := pq.Array([]string{string(submission.StatusPublished), string(submission.StatusRejected)})
	rows, err := r.db.QueryContext(ctx, query, terminal)
	if err != nil {
		return nil, fmt.Errorf("error listing active submissions: %w", err)
	}
	return r.scanAll(rows)
}

func (r *PostgresSubmissionRepository) UpdateStatus(ctx context.Context, id int64, status submission.Status) error {
	return r.exec(ctx,
		`UPDATE submissions SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
}

func (r *PostgresSubmissionRepository) SetContent(ctx context.Context, id int64, content string) error {
	return r.exec(ctx,
		`UPDATE submissions SET content = $1, updated_at = NOW() WHERE id = $2`,
		content, id)
}

func (r *PostgresSubmissionRepository) MarkReviewDone(ctx context.Context, id int64, publishDate time.Time) error {
	return r.exec(ctx,
		`UPDATE submissions SET status = $1, publish_date = $2, accepted_at = NOW(), updated_at = NOW() WHERE id = $3`,
		submission.StatusReviewDone, publishDate, id)
}

func (r *PostgresSubmissionRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.exec(ctx,
		`UPDATE submissions SET status = $1, updated_at = NOW() WHERE id = $2`,
		submission.StatusPublished, id)
}

func (r *PostgresSubmissionRepository) MarkRejected(ctx context.Context, id int64) error {
	return r.exec(ctx,
		`UPDATE submissions SET status = $1, rejected_at = NOW(), updated_at = NOW() WHERE id = $2`,
		submission.StatusRejected, id)
}

func (r *PostgresSubmissionRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating submission: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *PostgresSubmissionRepository) scanOne(row *sql.Row) (*submission.Submission, error) {
	s := &submission.Submission{}
	err := row.Scan(&s.ID, &s.ExternalMessageID, &s.ExternalThreadID, &s.Title, &s.AuthorName,
		&s.AuthorEmail, &s.SourceURL, &s.Content, &s.Status, &s.PublishDate,
		&s.AcceptedAt, &s.RejectedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("error scanning submission: %w", err)
	}
	return s, nil
}

func (r *PostgresSubmissionRepository) scanAll(rows *sql.Rows) ([]*submission.Submission, error) {
	defer rows.Close()
	subs := make([]*submission.Submission, 0)
	for rows.Next() {
		s := &submission.Submission{}
		if err := rows.Scan(&s.ID, &s.ExternalMessageID, &s.ExternalThreadID, &s.Title, &s.AuthorName,
			&s.AuthorEmail, &s.SourceURL, &s.Content, &s.Status, &s.PublishDate,
			&s.AcceptedAt, &s.RejectedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning submission row: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return subs, nil
}
