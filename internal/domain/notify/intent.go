package notify

import (
	"context"

	"github.com/google/uuid"
)

// RecipientKind says who an intent is addressed to. The gateway picks the
// transport (group chat, operator chat, author email) from it.
type RecipientKind string

const (
	RecipientAuthor   RecipientKind = "author"
	RecipientReviewer RecipientKind = "reviewer"
	RecipientOperator RecipientKind = "operator"
	RecipientGroup    RecipientKind = "group"
)

// Kind classifies the message so the gateway can choose templates or
// subjects without parsing the text.
type Kind string

const (
	KindSubmissionAnnounced Kind = "submission_announced"
	KindConfirmRequest      Kind = "confirm_request"
	KindUnderReview         Kind = "under_review"
	KindFollowupReminder    Kind = "followup_reminder"
	KindReviewProgress      Kind = "review_progress"
	KindAcceptance          Kind = "acceptance"
	KindRejectionProposal   Kind = "rejection_proposal"
	KindRejection           Kind = "rejection"
	KindContentRequest      Kind = "content_request"
	KindAssignmentFailed    Kind = "assignment_failed"
)

// Button is an inline action attached to a chat message. Data is the
// callback payload the transport echoes back.
type Button struct {
	Label string
	Data  string
}

// Intent is one outbound notification the engine wants delivered. The
// engine never sends directly; it hands intents to a Gateway after the
// state change is committed. ID lets a retrying gateway deduplicate.
type Intent struct {
	ID           uuid.UUID
	Recipient    RecipientKind
	Email        string // set for author intents
	SubmissionID int64
	Kind         Kind
	Subject      string // email subject, when applicable
	Text         string
	Buttons      [][]Button // rows of inline buttons
}

// NewIntent builds an intent with a fresh ID.
func NewIntent(recipient RecipientKind, subID int64, kind Kind, text string) Intent {
	return Intent{
		ID:           uuid.New(),
		Recipient:    recipient,
		SubmissionID: subID,
		Kind:         kind,
		Text:         text,
	}
}

// Gateway delivers intents. Implementations own retries of transient
// transport errors; the engine treats a failed send as best-effort and
// never rolls back the committed state change.
type Gateway interface {
	Send(ctx context.Context, intent Intent) error
}
