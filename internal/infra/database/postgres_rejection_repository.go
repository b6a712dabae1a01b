package database

import (
	"context"
	"database/sql"
	"fmt"

	"tem_review_bot/internal/domain/rejection"

	"github.com/lib/pq"
)

var ErrRejectionNotFound = fmt.Errorf("rejection proposal not found")

type PostgresRejectionRepository struct {
	db *sql.DB
}

func NewPostgresRejectionRepository(db *sql.DB) *PostgresRejectionRepository {
	return &PostgresRejectionRepository{db: db}
}

func (r *PostgresRejectionRepository) Create(ctx context.Context, rej *rejection.Rejection) error {
	if rej.Status == "" {
		rej.Status = rejection.StatusProposed
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO rejections (submission_id, proposed_by, reason, seconders, status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, proposed_at`,
		rej.SubmissionID, rej.ProposedBy, rej.Reason, pq.Array(rej.Seconders), rej.Status,
	).Scan(&rej.ID, &rej.ProposedAt)
	if err != nil {
		return fmt.Errorf("error creating rejection proposal: %w", err)
	}
	return nil
}

func (r *PostgresRejectionRepository) GetActive(ctx context.Context, submissionID int64) (*rejection.Rejection, error) {
	query := `SELECT id, submission_id, proposed_by, reason, seconders, status, proposed_at, resolved_at
		FROM rejections
		WHERE submission_id = $1 AND status IN ($2, $3)
		ORDER BY id DESC LIMIT 1`
	rej := &rejection.Rejection{}
	var seconders pq.StringArray
	err := r.db.QueryRowContext(ctx, query, submissionID,
		rejection.StatusProposed, rejection.StatusQuorumReached,
	).Scan(&rej.ID, &rej.SubmissionID, &rej.ProposedBy, &rej.Reason, &seconders,
		&rej.Status, &rej.ProposedAt, &rej.ResolvedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRejectionNotFound
		}
		return nil, fmt.Errorf("error getting active rejection: %w", err)
	}
	rej.Seconders = seconders
	return rej, nil
}

// AddSeconder appends the identity server-side so two simultaneous seconds
// cannot overwrite each other's entry.
func (r *PostgresRejectionRepository) AddSeconder(ctx context.Context, id int64, identity string) (*rejection.Rejection, error) {
	query := `UPDATE rejections
		SET seconders = array_append(seconders, $1)
		WHERE id = $2 AND NOT ($1 = ANY(seconders))`
	if _, err := r.db.ExecContext(ctx, query, identity, id); err != nil {
		return nil, fmt.Errorf("error adding seconder: %w", err)
	}

	rej := &rejection.Rejection{}
	var seconders pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, submission_id, proposed_by, reason, seconders, status, proposed_at, resolved_at
		 FROM rejections WHERE id = $1`, id,
	).Scan(&rej.ID, &rej.SubmissionID, &rej.ProposedBy, &rej.Reason, &seconders,
		&rej.Status, &rej.ProposedAt, &rej.ResolvedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRejectionNotFound
		}
		return nil, fmt.Errorf("error reloading rejection: %w", err)
	}
	rej.Seconders = seconders
	return rej, nil
}

// MarkQuorumReached is a compare-and-set: only a PROPOSED row transitions,
// so of two racing seconds exactly one caller sees reached=true.
func (r *PostgresRejectionRepository) MarkQuorumReached(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rejections SET status = $1 WHERE id = $2 AND status = $3`,
		rejection.StatusQuorumReached, id, rejection.StatusProposed)
	if err != nil {
		return false, fmt.Errorf("error marking rejection quorum reached: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking rejection quorum update: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRejectionRepository) UpdateStatus(ctx context.Context, id int64, status rejection.Status) error {
	query := `UPDATE rejections SET status = $1, resolved_at = CASE WHEN $1 IN ($2, $3) THEN NOW() ELSE resolved_at END
		WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, rejection.StatusConfirmed, rejection.StatusDiscarded, id)
	if err != nil {
		return fmt.Errorf("error updating rejection status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRejectionNotFound
	}
	return nil
}
