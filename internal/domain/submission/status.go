package submission

// Status is the lifecycle state of a submission. Only the workflow service
// moves a submission between states; every other component reads it.
type Status string

const (
	StatusNew             Status = "NEW"
	StatusAwaitingContent Status = "AWAITING_CONTENT"
	StatusAssigning       Status = "ASSIGNING"
	StatusAwaitingConfirm Status = "AWAITING_CONFIRM"
	StatusUnderReview     Status = "UNDER_REVIEW"
	StatusReviewDone      Status = "REVIEW_DONE"
	StatusPublished       Status = "PUBLISHED"
	StatusRejected        Status = "REJECTED"
)

// Terminal reports whether the status is absorbing: no further transitions
// are accepted once a submission is published or rejected.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusRejected
}

// ActiveStatuses are the non-terminal states a keyword lookup may match.
var ActiveStatuses = []Status{
	StatusNew,
	StatusAwaitingContent,
	StatusAssigning,
	StatusAwaitingConfirm,
	StatusUnderReview,
	StatusReviewDone,
}
