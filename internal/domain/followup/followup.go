package followup

import (
	"context"
	"time"
)

// Followup is the recurring reviewer reminder for one submission under
// review. One active row per submission; deleted when the submission
// leaves UNDER_REVIEW.
type Followup struct {
	ID           int64
	SubmissionID int64
	DueAt        time.Time
	Interval     time.Duration
	CreatedAt    time.Time
}

// Repository defines persistence for follow-up reminders.
type Repository interface {
	// Upsert creates the submission's follow-up row or replaces its
	// schedule if one already exists.
	Upsert(ctx context.Context, f *Followup) error
	// ListDue returns follow-ups whose due timestamp has passed.
	ListDue(ctx context.Context, now time.Time) ([]*Followup, error)
	// Reschedule moves the due timestamp forward. The next due time is
	// computed from "now", not the missed slot, so downtime does not pile
	// up reminders.
	Reschedule(ctx context.Context, id int64, nextDue time.Time) error
	DeleteBySubmission(ctx context.Context, submissionID int64) error
}
