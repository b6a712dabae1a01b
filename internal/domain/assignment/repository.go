package assignment

import (
	"context"
	"time"
)

// Repository defines persistence for assignments and the workload history.
type Repository interface {
	// Create inserts a PROPOSED assignment and appends the matching
	// history entry.
	Create(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, submissionID int64, reviewerHandle string) (*Assignment, error)
	ListBySubmission(ctx context.Context, submissionID int64) ([]*Assignment, error)

	UpdateStatus(ctx context.Context, submissionID int64, reviewerHandle string, status Status) error
	MarkDone(ctx context.Context, submissionID int64, reviewerHandle string) error
	// DeleteUnaccepted removes PROPOSED and DECLINED rows; used by the
	// operator override to supersede a pending reviewer set.
	DeleteUnaccepted(ctx context.Context, submissionID int64) error

	// CountByReviewerSince aggregates history entries newer than the cutoff
	// into a handle -> assignment-count map.
	CountByReviewerSince(ctx context.Context, cutoff time.Time) (map[string]int, error)
}
