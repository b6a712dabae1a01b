package contentreq

import (
	"context"
	"database/sql"
	"time"
)

// Status is the resolution state of a content request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusFulfilled Status = "FULFILLED"
	StatusSkipped   Status = "SKIPPED"
	StatusExpired   Status = "EXPIRED"
)

// Request is the time-boxed ask to the operator for an article's draft text
// before reviewer assignment. Exactly one per submission, created at intake
// when an operator is configured, resolved exactly once.
type Request struct {
	ID           int64
	SubmissionID int64
	DeadlineAt   time.Time
	Status       Status
	CreatedAt    time.Time
	ResolvedAt   sql.NullTime
}

// Repository defines persistence for content requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetBySubmission(ctx context.Context, submissionID int64) (*Request, error)
	// Resolve moves a PENDING request to the given terminal status and
	// reports whether this call won the resolution; false means the
	// request was already resolved and the caller should treat the
	// command as a no-op.
	Resolve(ctx context.Context, submissionID int64, status Status) (bool, error)
	// ListExpired returns PENDING requests whose deadline has passed.
	ListExpired(ctx context.Context, now time.Time) ([]*Request, error)
}
