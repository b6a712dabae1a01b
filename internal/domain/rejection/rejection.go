package rejection

import (
	"context"
	"database/sql"
	"time"
)

// Status tracks a rejection proposal's progress toward operator confirmation.
type Status string

const (
	StatusProposed      Status = "PROPOSED"
	StatusQuorumReached Status = "QUORUM_REACHED"
	StatusConfirmed     Status = "CONFIRMED"
	StatusDiscarded     Status = "DISCARDED"
)

// QuorumSeconders is how many distinct supporters, beyond the proposer,
// a proposal needs before the operator is asked to confirm.
const QuorumSeconders = 2

// Rejection is a proposal to reject one submission. At most one active
// (PROPOSED or QUORUM_REACHED) proposal may exist per submission.
type Rejection struct {
	ID           int64
	SubmissionID int64
	ProposedBy   string
	Reason       string
	Seconders    []string
	Status       Status
	ProposedAt   time.Time
	ResolvedAt   sql.NullTime
}

// Active reports whether the proposal is still awaiting votes or
// confirmation.
func (r *Rejection) Active() bool {
	return r.Status == StatusProposed || r.Status == StatusQuorumReached
}

// HasSeconder reports whether the identity already seconded the proposal.
func (r *Rejection) HasSeconder(identity string) bool {
	for _, s := range r.Seconders {
		if s == identity {
			return true
		}
	}
	return false
}

// Repository defines persistence for rejection proposals.
type Repository interface {
	Create(ctx context.Context, r *Rejection) error
	// GetActive returns the submission's PROPOSED or QUORUM_REACHED
	// proposal, or ErrRejectionNotFound when none is open.
	GetActive(ctx context.Context, submissionID int64) (*Rejection, error)
	// AddSeconder appends the identity to the seconder set if absent and
	// returns the updated proposal.
	AddSeconder(ctx context.Context, id int64, identity string) (*Rejection, error)
	// MarkQuorumReached is a compare-and-set on PROPOSED; of two racing
	// seconds only the winner sees reached=true and asks the operator.
	MarkQuorumReached(ctx context.Context, id int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
