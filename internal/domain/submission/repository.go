package submission

import (
	"context"
	"time"
)

// Repository defines persistence for submissions.
// Status-changing writes are single statements so a replayed command can
// never leave a submission half-transitioned.
type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetByID(ctx context.Context, id int64) (*Submission, error)
	// GetByExternalMessageID is the intake dedup lookup.
	GetByExternalMessageID(ctx context.Context, externalID string) (*Submission, error)
	// FindActiveByKeyword returns every non-terminal submission whose title
	// or author name contains the keyword (case-insensitive).
	FindActiveByKeyword(ctx context.Context, keyword string) ([]*Submission, error)
	ListActive(ctx context.Context) ([]*Submission, error)

	UpdateStatus(ctx context.Context, id int64, status Status) error
	// SetContent stores operator-provided article text.
	SetContent(ctx context.Context, id int64, content string) error
	// MarkReviewDone records the computed publish date alongside the
	// REVIEW_DONE status in one statement.
	MarkReviewDone(ctx context.Context, id int64, publishDate time.Time) error
	MarkPublished(ctx context.Context, id int64) error
	MarkRejected(ctx context.Context, id int64) error
}
