package app

import "errors"

// Conflict/no-op outcomes. Handlers report these as informational replies,
// not failures: a replayed command must land on one of them instead of
// mutating state twice.
var (
	ErrAlreadyFinalized = errors.New("submission is already finalized")
	ErrAlreadyRecorded  = errors.New("response already recorded")
	ErrNotAssigned      = errors.New("reviewer is not assigned to this submission")
	ErrNotUnderReview   = errors.New("submission is not under review")
	ErrNoPendingContent = errors.New("no pending content request")
	ErrOverrideTooLate  = errors.New("review already started, override no longer possible")

	ErrProposalOpen     = errors.New("a rejection proposal is already open")
	ErrNoActiveProposal = errors.New("no active rejection proposal")
	ErrOwnProposal      = errors.New("cannot second your own rejection proposal")
	ErrQuorumNotReached = errors.New("rejection proposal has not reached quorum")

	ErrNoMatch = errors.New("no active submission matches the keyword")
)
