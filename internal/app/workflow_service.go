// internal/app/workflow_service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tem_review_bot/internal/domain/assignment"
	"tem_review_bot/internal/domain/contentreq"
	"tem_review_bot/internal/domain/followup"
	"tem_review_bot/internal/domain/notify"
	"tem_review_bot/internal/domain/submission"

	idb "tem_review_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// WorkflowConfig carries the workflow knobs the engine needs.
type WorkflowConfig struct {
	FollowupInterval   time.Duration
	ContentRequestTTL  time.Duration
	PublishLocation    *time.Location
	PublishTime        string // "HH:MM"
	OperatorConfigured bool
}

// WorkflowService is the state machine. It owns every legal transition and
// is the only component that mutates a submission's lifecycle state. All
// other services request transitions through it.
//
// Every public method serializes on the submission, commits the state
// change first and sends notifications after; a failed send is logged and
// never rolls the transition back.
type WorkflowService struct {
	subs        submission.Repository
	assigns     assignment.Repository
	followups   followup.Repository
	contentReqs contentreq.Repository
	assigner    *AssignerService
	gateway     notify.Gateway
	locks       *submissionLocker
	logger      *logrus.Entry
	cfg         WorkflowConfig

	now func() time.Time
}

func NewWorkflowService(
	subs submission.Repository,
	assigns assignment.Repository,
	followups followup.Repository,
	contentReqs contentreq.Repository,
	assigner *AssignerService,
	gateway notify.Gateway,
	logger *logrus.Entry,
	cfg WorkflowConfig,
) *WorkflowService {
	return &WorkflowService{
		subs:        subs,
		assigns:     assigns,
		followups:   followups,
		contentReqs: contentReqs,
		assigner:    assigner,
		gateway:     gateway,
		locks:       newSubmissionLocker(),
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// AdmitSubmission runs the first transition for a freshly created
// submission: with an operator configured it opens a content request and
// waits; otherwise it goes straight to reviewer assignment on title/body.
func (s *WorkflowService) AdmitSubmission(ctx context.Context, subID int64) error {
	unlock := s.locks.Lock(subID)
	defer unlock()

	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status != submission.StatusNew {
		s.logger.WithField("submission_id", subID).Info("Submission already admitted, skipping")
		return nil
	}

	if !s.cfg.OperatorConfigured {
		return s.startAssignment(ctx, sub)
	}

	deadline := s.now().Add(s.cfg.ContentRequestTTL)
	if err := s.contentReqs.Create(ctx, &contentreq.Request{SubmissionID: subID, DeadlineAt: deadline}); err != nil {
		return fmt.Errorf("creating content request for submission %d: %w", subID, err)
	}
	if err := s.subs.UpdateStatus(ctx, subID, submission.StatusAwaitingContent); err != nil {
		return fmt.Errorf("moving submission %d to AWAITING_CONTENT: %w", subID, err)
	}

	text := fmt.Sprintf(
		"📄 New submission 《%s》 by %s needs its draft text.\n\n"+
			"Reply with /content %d <article text> to paste it, or /skip %d to assign reviewers from the title alone.\n"+
			"If nothing arrives within %s I'll proceed with the title.",
		sub.Title, sub.AuthorName, subID, subID, s.cfg.ContentRequestTTL)
	s.send(ctx, notify.NewIntent(notify.RecipientOperator, subID, notify.KindContentRequest, text))
	return nil
}

// ProvideContent resolves the content request with operator-supplied text
// and moves on to assignment. Replays after resolution are benign no-ops.
func (s *WorkflowService) ProvideContent(ctx context.Context, subID int64, content string) error {
	unlock := s.locks.Lock(subID)
	defer unlock()
	return s.resolveContent(ctx, subID, contentreq.StatusFulfilled, content)
}

// SkipContent resolves the content request without text; assignment runs
// on the title alone.
func (s *WorkflowService) SkipContent(ctx context.Context, subID int64) error {
	unlock := s.locks.Lock(subID)
	defer unlock()
	return s.resolveContent(ctx, subID, contentreq.StatusSkipped, "")
}

// ExpireContent is the scheduler's deadline path for an unresolved request.
func (s *WorkflowService) ExpireContent(ctx context.Context, subID int64) error {
	unlock := s.locks.Lock(subID)
	defer unlock()
	err := s.resolveContent(ctx, subID, contentreq.StatusExpired, "")
	if err == ErrNoPendingContent {
		// A human beat the timer. Nothing to do.
		return nil
	}
	return err
}

func (s *WorkflowService) resolveContent(ctx context.Context, subID int64, status contentreq.Status, content string) error {
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status.Terminal() {
		return ErrAlreadyFinalized
	}

	won, err := s.contentReqs.Resolve(ctx, subID, status)
	if err != nil {
		return fmt.Errorf("resolving content request for submission %d: %w", subID, err)
	}
	if !won {
		return ErrNoPendingContent
	}

	if content != "" {
		if err := s.subs.SetContent(ctx, subID, content); err != nil {
			return fmt.Errorf("storing content for submission %d: %w", subID, err)
		}
		sub.Content.String = content
		sub.Content.Valid = true
	}

	s.logger.WithFields(logrus.Fields{
		"submission_id": subID,
		"resolution":    status,
	}).Info("Content request resolved")
	return s.startAssignment(ctx, sub)
}

// startAssignment asks the assigner for 1-2 reviewers and, on success,
// posts the confirm/decline requests. On an explicit assigner failure the
// submission stays in ASSIGNING and the operator is asked to /override.
// Callers hold the submission lock.
func (s *WorkflowService) startAssignment(ctx context.Context, sub *submission.Submission) error {
	if err := s.subs.UpdateStatus(ctx, sub.ID, submission.StatusAssigning); err != nil {
		return fmt.Errorf("moving submission %d to ASSIGNING: %w", sub.ID, err)
	}

	proposal, err := s.assigner.Propose(ctx, sub, nil)
	if err != nil {
		s.logger.WithError(err).WithField("submission_id", sub.ID).Error("Reviewer assignment failed")
		s.escalateAssignment(ctx, sub, nil)
		return nil
	}

	for _, handle := range proposal.Reviewers {
		a := &assignment.Assignment{SubmissionID: sub.ID, ReviewerHandle: handle}
		if err := s.assigns.Create(ctx, a); err != nil {
			return fmt.Errorf("creating assignment for %s: %w", handle, err)
		}
	}
	if err := s.subs.UpdateStatus(ctx, sub.ID, submission.StatusAwaitingConfirm); err != nil {
		return fmt.Errorf("moving submission %d to AWAITING_CONFIRM: %w", sub.ID, err)
	}

	s.announceProposal(ctx, sub, proposal)
	return nil
}

func (s *WorkflowService) announceProposal(ctx context.Context, sub *submission.Submission, proposal *Proposal) {
	mentions := mentionList(proposal.Reviewers)
	sourceLine := ""
	if sub.SourceURL.Valid && sub.SourceURL.String != "" {
		sourceLine = "\n" + sub.SourceURL.String
	}
	announcement := fmt.Sprintf(
		"📬 New submission received\n\n《%s》\nAuthor: %s (%s)%s\n\n"+
			"Suggested reviewer(s) (topic: %s):\n%s\n\nReason: %s",
		sub.Title, sub.AuthorName, sub.AuthorEmail, sourceLine,
		proposal.Category, mentions, proposal.Reason)
	s.send(ctx, notify.NewIntent(notify.RecipientGroup, sub.ID, notify.KindSubmissionAnnounced, announcement))

	confirm := notify.NewIntent(notify.RecipientReviewer, sub.ID, notify.KindConfirmRequest,
		fmt.Sprintf("%s — are you available to review 《%s》?", mentions, sub.Title))
	confirm.Buttons = confirmButtons(sub.ID, proposal.Reviewers)
	s.send(ctx, confirm)
}

// escalateAssignment posts the manual-override fallback, pre-filled with
// whatever reviewers are already accepted.
func (s *WorkflowService) escalateAssignment(ctx context.Context, sub *submission.Submission, declined []string) {
	accepted := []string{}
	if assignments, err := s.assigns.ListBySubmission(ctx, sub.ID); err == nil {
		for _, a := range assignments {
			if a.Status == assignment.StatusAccepted {
				accepted = append(accepted, a.ReviewerHandle)
			}
		}
	}
	example := strings.TrimSpace(fmt.Sprintf("/override %d %s @new_reviewer", sub.ID, mentionList(accepted)))
	declinedLine := ""
	if len(declined) > 0 {
		declinedLine = fmt.Sprintf("%s is not available and ", mentionList(declined))
	}
	text := fmt.Sprintf(
		"⚠️ %sautomatic reviewer assignment for 《%s》 failed.\n\n"+
			"Please assign manually:\n%s",
		declinedLine, sub.Title, example)
	s.send(ctx, notify.NewIntent(notify.RecipientOperator, sub.ID, notify.KindAssignmentFailed, text))
}

// AcceptAssignment records a reviewer's confirmation. When every
// non-declined assignment is accepted the submission moves to UNDER_REVIEW.
func (s *WorkflowService) AcceptAssignment(ctx context.Context, subID int64, handle string) error {
	unlock := s.locks.Lock(subID)
	defer unlock()

	sub, a, err := s.loadAssignment(ctx, subID, handle)
	if err != nil {
		return err
	}
	if a.Status != assignment.StatusProposed {
		return ErrAlreadyRecorded
	}
	if err := s.assigns.UpdateStatus(ctx, subID, handle, assignment.StatusAccepted); err != nil {
		return fmt.Errorf("accepting assignment: %w", err)
	}

	all, err := s.assigns.ListBySubmission(ctx, subID)
	if err != nil {
		return fmt.Errorf("listing assignments for submission %d: %w", subID, err)
	}
	if assignment.AllAccepted(all) {
		return s.transitionToUnderReview(ctx, sub, all)
	}
	return nil
}

// DeclineAssignment records a decline and immediately asks the assigner for
// a replacement; if that fails the operator is asked to /override.
func (s *WorkflowService) DeclineAssignment(ctx context.Context, subID int64, handle string) error {
	unlock := s.locks.Lock(subID)
	defer unlock()

	sub, a, err := s.loadAssignment(ctx, subID, handle)
	if err != nil {
		return err
	}
	if a.Status != assignment.StatusProposed {
		return ErrAlreadyRecorded
	}
	if err := s.assigns.UpdateStatus(ctx, subID, handle, assignment.StatusDeclined); err != nil {
		return fmt.Errorf("declining assignment: %w", err)
	}

	all, err := s.assigns.ListBySubmission(ctx, subID)
	if err != nil {
		return fmt.Errorf("listing assignments for submission %d: %w", subID, err)
	}
	excluded := make([]string, 0, len(all))
	for _, existing := range all {
		excluded = append(excluded, existing.ReviewerHandle)
	}

	proposal, err := s.assigner.ProposeReplacement(ctx, sub, handle, excluded)
	if err != nil {
		s.logger.WithError(err).WithField("submission_id", subID).Error("Replacement assignment failed")
		s.escalateAssignment(ctx, sub, []string{handle})
		return nil
	}

	replacement := proposal.Reviewers[0]
	if err := s.assigns.Create(ctx, &assignment.Assignment{SubmissionID: subID, ReviewerHandle: replacement}); err != nil {
		return fmt.Errorf("creating replacement assignment: %w", err)
	}

	intent := notify.NewIntent(notify.RecipientReviewer, subID, notify.KindConfirmRequest,
		fmt.Sprintf("⚠️ @%s is not available for 《%s》.\n\nSuggested replacement: @%s", handle, sub.Title, replacement))
	intent.Buttons = confirmButtons(subID, []string{replacement})
	s.send(ctx, intent)
	return nil
}

func (s *WorkflowService) transitionToUnderReview(ctx context.Context, sub *submission.Submission, all []*assignment.Assignment) error {
	if err := s.subs.UpdateStatus(ctx, sub.ID, submission.StatusUnderReview); err != nil {
		return fmt.Errorf("moving submission %d to UNDER_REVIEW: %w", sub.ID, err)
	}
	if err := s.followups.Upsert(ctx, &followup.Followup{
		SubmissionID: sub.ID,
		DueAt:        s.now().Add(s.cfg.FollowupInterval),
		Interval:     s.cfg.FollowupInterval,
	}); err != nil {
		return fmt.Errorf("scheduling followup for submission %d: %w", sub.ID, err)
	}

	reviewers := acceptedHandles(all)

	author := notify.NewIntent(notify.RecipientAuthor, sub.ID, notify.KindUnderReview,
		fmt.Sprintf("Hi %s,\n\nYour submission 《%s》 is now under review. We'll get back to you once the review is complete.\n\nThanks for writing for us!",
			sub.AuthorName, sub.Title))
	author.Email = sub.AuthorEmail
	author.Subject = fmt.Sprintf("Your submission 《%s》 is under review", sub.Title)
	s.send(ctx, author)

	lines := make([]string, len(reviewers))
	for i, r := range reviewers {
		lines[i] = fmt.Sprintf("Reviewer %d: @%s", i+1, r)
	}
	countWord := "Reviewer"
	if len(reviewers) > 1 {
		countWord = "All reviewers"
	}
	group := notify.NewIntent(notify.RecipientGroup, sub.ID, notify.KindUnderReview,
		fmt.Sprintf("✅ %s confirmed for 《%s》\n%s\n\n"+
			"Submission status updated to \"Under Review\". Author has been notified.\n\n"+
			"When you've finished your review, click the button below or type /done <keyword> (use any word from the title)",
			countWord, sub.Title, strings.Join(lines, "\n")))
	group.Buttons = doneButtons(sub.ID, reviewers)
	s.send(ctx, group)
	return nil
}

// MarkDone records one reviewer's finished review. When the last active
// reviewer finishes, the submission moves through REVIEW_DONE (publish date
// computed) to PUBLISHED.
func (s *WorkflowService) MarkDone(ctx context.Context, subID int64, handle string) error {
	unlock := s.locks.Lock(subID)
	defer unlock()

	sub, a, err := s.loadAssignment(ctx, subID, handle)
	if err != nil {
		return err
	}
	if sub.Status != submission.StatusUnderReview {
		return ErrNotUnderReview
	}
	if a.Status == assignment.StatusDone {
		return ErrAlreadyRecorded
	}
	if a.Status != assignment.StatusAccepted {
		return ErrNotAssigned
	}
	if err := s.assigns.MarkDone(ctx, subID, handle); err != nil {
		return fmt.Errorf("marking assignment done: %w", err)
	}

	all, err := s.assigns.ListBySubmission(ctx, subID)
	if err != nil {
		return fmt.Errorf("listing assignments for submission %d: %w", subID, err)
	}
	if assignment.AllDone(all) {
		return s.finishReview(ctx, sub)
	}

	waiting := []string{}
	for _, other := range all {
		if other.Status == assignment.StatusAccepted {
			waiting = append(waiting, other.ReviewerHandle)
		}
	}
	if len(waiting) > 0 {
		s.send(ctx, notify.NewIntent(notify.RecipientGroup, subID, notify.KindReviewProgress,
			fmt.Sprintf("✅ @%s has finished their review of 《%s》.\n\nWaiting on %s to complete theirs.",
				handle, sub.Title, mentionList(waiting))))
	}
	return nil
}

func (s *WorkflowService) finishReview(ctx context.Context, sub *submission.Submission) error {
	publishDate := ComputePublishDate(s.now(), s.cfg.PublishLocation, s.cfg.PublishTime)
	if err := s.subs.MarkReviewDone(ctx, sub.ID, publishDate); err != nil {
		return fmt.Errorf("moving submission %d to REVIEW_DONE: %w", sub.ID, err)
	}
	if err := s.followups.DeleteBySubmission(ctx, sub.ID); err != nil {
		return fmt.Errorf("removing followup for submission %d: %w", sub.ID, err)
	}
	if err := s.subs.MarkPublished(ctx, sub.ID); err != nil {
		return fmt.Errorf("moving submission %d to PUBLISHED: %w", sub.ID, err)
	}

	dateStr := publishDate.Format("2006-01-02")
	author := notify.NewIntent(notify.RecipientAuthor, sub.ID, notify.KindAcceptance,
		fmt.Sprintf("Hi %s,\n\nGood news — 《%s》 passed review and is scheduled to publish on %s (%s).\n\nThank you for your contribution!",
			sub.AuthorName, sub.Title, dateStr, publishDate.Format("15:04 MST")))
	author.Email = sub.AuthorEmail
	author.Subject = fmt.Sprintf("《%s》 has been accepted", sub.Title)
	s.send(ctx, author)

	s.send(ctx, notify.NewIntent(notify.RecipientGroup, sub.ID, notify.KindAcceptance,
		fmt.Sprintf("🎉 All reviews complete for 《%s》!\n\nScheduled to publish: %s\n\nAuthor has been notified.", sub.Title, dateStr)))

	s.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"publish_date":  dateStr,
	}).Info("Submission published")
	return nil
}

// Override replaces the proposed reviewer set before the review starts.
// Accepted assignments survive; proposed and declined ones are superseded.
func (s *WorkflowService) Override(ctx context.Context, subID int64, handles []string) error {
	unlock := s.locks.Lock(subID)
	defer unlock()

	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status.Terminal() {
		return ErrAlreadyFinalized
	}
	switch sub.Status {
	case submission.StatusUnderReview, submission.StatusReviewDone:
		return ErrOverrideTooLate
	}

	// An override while a content request is still pending implies the
	// operator wants to move on; resolve it as skipped.
	if sub.Status == submission.StatusAwaitingContent {
		if _, err := s.contentReqs.Resolve(ctx, subID, contentreq.StatusSkipped); err != nil {
			return fmt.Errorf("resolving content request on override: %w", err)
		}
	}

	if err := s.assigns.DeleteUnaccepted(ctx, subID); err != nil {
		return fmt.Errorf("clearing superseded assignments: %w", err)
	}
	for _, handle := range handles {
		if err := s.assigns.Create(ctx, &assignment.Assignment{SubmissionID: subID, ReviewerHandle: handle}); err != nil {
			return fmt.Errorf("creating override assignment for %s: %w", handle, err)
		}
	}
	if err := s.subs.UpdateStatus(ctx, subID, submission.StatusAwaitingConfirm); err != nil {
		return fmt.Errorf("moving submission %d to AWAITING_CONFIRM: %w", subID, err)
	}

	intent := notify.NewIntent(notify.RecipientReviewer, subID, notify.KindConfirmRequest,
		fmt.Sprintf("🔧 Reviewer override for 《%s》\n\n%s — are you available to review 《%s》?",
			sub.Title, mentionList(handles), sub.Title))
	intent.Buttons = confirmButtons(subID, handles)
	s.send(ctx, intent)

	s.logger.WithFields(logrus.Fields{
		"submission_id": subID,
		"reviewers":     handles,
	}).Info("Operator override applied")
	return nil
}

// Reject is the terminal transition driven by a confirmed rejection
// proposal. Active follow-ups and content requests are cleared and the
// author is notified with the stated reason.
func (s *WorkflowService) Reject(ctx context.Context, subID int64, reason string) error {
	unlock := s.locks.Lock(subID)
	defer unlock()

	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status.Terminal() {
		return ErrAlreadyFinalized
	}

	if err := s.subs.MarkRejected(ctx, subID); err != nil {
		return fmt.Errorf("moving submission %d to REJECTED: %w", subID, err)
	}
	if err := s.followups.DeleteBySubmission(ctx, subID); err != nil {
		return fmt.Errorf("removing followup for submission %d: %w", subID, err)
	}
	if _, err := s.contentReqs.Resolve(ctx, subID, contentreq.StatusSkipped); err != nil {
		return fmt.Errorf("resolving content request on rejection: %w", err)
	}

	author := notify.NewIntent(notify.RecipientAuthor, subID, notify.KindRejection,
		fmt.Sprintf("Hi %s,\n\nThank you for submitting 《%s》. After review we've decided not to publish it this time.\n\nReason: %s\n\nWe'd love to see future submissions from you.",
			sub.AuthorName, sub.Title, reason))
	author.Email = sub.AuthorEmail
	author.Subject = fmt.Sprintf("About your submission 《%s》", sub.Title)
	s.send(ctx, author)

	s.send(ctx, notify.NewIntent(notify.RecipientGroup, subID, notify.KindRejection,
		fmt.Sprintf("🚫 《%s》 has been rejected. Author has been notified.", sub.Title)))

	s.logger.WithField("submission_id", subID).Info("Submission rejected")
	return nil
}

// SendFollowup delivers one due reminder and re-arms it from "now" so
// downtime never piles up missed reminders. Follow-ups whose submission
// left UNDER_REVIEW are dropped instead.
func (s *WorkflowService) SendFollowup(ctx context.Context, f *followup.Followup) error {
	unlock := s.locks.Lock(f.SubmissionID)
	defer unlock()

	sub, err := s.subs.GetByID(ctx, f.SubmissionID)
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", f.SubmissionID, err)
	}
	if sub.Status != submission.StatusUnderReview {
		return s.followups.DeleteBySubmission(ctx, f.SubmissionID)
	}

	all, err := s.assigns.ListBySubmission(ctx, f.SubmissionID)
	if err != nil {
		return fmt.Errorf("listing assignments for submission %d: %w", f.SubmissionID, err)
	}
	pending := acceptedHandles(all)
	if len(pending) == 0 {
		return s.followups.DeleteBySubmission(ctx, f.SubmissionID)
	}

	// Reschedule before sending: a crashed send retries on the next cycle
	// rather than re-firing immediately in a tight loop.
	if err := s.followups.Reschedule(ctx, f.ID, s.now().Add(f.Interval)); err != nil {
		return fmt.Errorf("rescheduling followup %d: %w", f.ID, err)
	}

	intent := notify.NewIntent(notify.RecipientReviewer, f.SubmissionID, notify.KindFollowupReminder,
		fmt.Sprintf("👋 Friendly check-in for 《%s》\n\n%s — how's the review coming along?\n\nTap your button when you're done, or let us know if you need more time.",
			sub.Title, mentionList(pending)))
	intent.Buttons = doneButtons(f.SubmissionID, pending)
	s.send(ctx, intent)
	return nil
}

func (s *WorkflowService) loadAssignment(ctx context.Context, subID int64, handle string) (*submission.Submission, *assignment.Assignment, error) {
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status.Terminal() {
		return nil, nil, ErrAlreadyFinalized
	}
	a, err := s.assigns.Get(ctx, subID, handle)
	if err == idb.ErrAssignmentNotFound {
		return nil, nil, ErrNotAssigned
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading assignment for @%s on submission %d: %w", handle, subID, err)
	}
	return sub, a, nil
}

// send delivers a notification intent after the state change has been
// committed. Delivery is best-effort: the gateway owns retries of
// transient failures, and a hard failure must not undo the transition.
func (s *WorkflowService) send(ctx context.Context, intent notify.Intent) {
	if err := s.gateway.Send(ctx, intent); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"submission_id": intent.SubmissionID,
			"kind":          intent.Kind,
			"recipient":     intent.Recipient,
		}).Warn("Notification send failed")
	}
}

func acceptedHandles(all []*assignment.Assignment) []string {
	out := []string{}
	for _, a := range all {
		if a.Status == assignment.StatusAccepted {
			out = append(out, a.ReviewerHandle)
		}
	}
	return out
}

func mentionList(handles []string) string {
	mentions := make([]string, len(handles))
	for i, h := range handles {
		mentions[i] = "@" + h
	}
	return strings.Join(mentions, " ")
}

func confirmButtons(subID int64, handles []string) [][]notify.Button {
	rows := make([][]notify.Button, 0, len(handles))
	for _, h := range handles {
		rows = append(rows, []notify.Button{
			{Label: fmt.Sprintf("✅ @%s — Yes", h), Data: fmt.Sprintf("accept|%d|%s", subID, h)},
			{Label: fmt.Sprintf("❌ @%s — Can't", h), Data: fmt.Sprintf("decline|%d|%s", subID, h)},
		})
	}
	return rows
}

func doneButtons(subID int64, handles []string) [][]notify.Button {
	rows := make([][]notify.Button, 0, len(handles))
	for _, h := range handles {
		rows = append(rows, []notify.Button{
			{Label: fmt.Sprintf("✅ Mark my review as done — @%s", h), Data: fmt.Sprintf("done|%d|%s", subID, h)},
		})
	}
	return rows
}
