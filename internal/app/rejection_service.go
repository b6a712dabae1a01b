// internal/app/rejection_service.go
package app

import (
	"context"
	"fmt"
	"strings"

	"tem_review_bot/internal/domain/notify"
	"tem_review_bot/internal/domain/rejection"
	"tem_review_bot/internal/domain/submission"

	"github.com/sirupsen/logrus"
)

// RejectionService runs the rejection-voting protocol: anyone may propose,
// two distinct seconders beyond the proposer reach quorum, and only the
// operator's explicit confirmation triggers the terminal transition.
type RejectionService struct {
	rejections rejection.Repository
	subs       submission.Repository
	workflow   *WorkflowService
	gateway    notify.Gateway
	logger     *logrus.Entry
}

func NewRejectionService(
	rejections rejection.Repository,
	subs submission.Repository,
	workflow *WorkflowService,
	gateway notify.Gateway,
	logger *logrus.Entry,
) *RejectionService {
	return &RejectionService{
		rejections: rejections,
		subs:       subs,
		workflow:   workflow,
		gateway:    gateway,
		logger:     logger,
	}
}

// Propose opens a rejection proposal. The proposer's support is implicit;
// a second proposal while one is pending is refused, not stacked.
func (s *RejectionService) Propose(ctx context.Context, subID int64, proposer, reason string) error {
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status.Terminal() {
		return ErrAlreadyFinalized
	}
	if _, err := s.rejections.GetActive(ctx, subID); err == nil {
		return ErrProposalOpen
	}

	rej := &rejection.Rejection{SubmissionID: subID, ProposedBy: proposer, Reason: reason}
	if err := s.rejections.Create(ctx, rej); err != nil {
		return fmt.Errorf("creating rejection proposal: %w", err)
	}

	keyword := titleKeyword(sub.Title, subID)
	s.send(ctx, notify.NewIntent(notify.RecipientGroup, subID, notify.KindRejectionProposal,
		fmt.Sprintf("🚫 @%s has proposed rejecting 《%s》\n\nReason: %s\n\n"+
			"%d more people need to second this. Type /second %s to agree.\n(0/%d seconds so far)",
			proposer, sub.Title, reason, rejection.QuorumSeconders, keyword, rejection.QuorumSeconders)))

	s.logger.WithFields(logrus.Fields{
		"submission_id": subID,
		"proposed_by":   proposer,
	}).Info("Rejection proposal opened")
	return nil
}

// Second adds one distinct supporter. A duplicate second is a no-op and the
// proposer cannot second their own proposal. Reaching quorum asks the
// operator to confirm; it does not reject by itself.
func (s *RejectionService) Second(ctx context.Context, subID int64, identity string) (int, error) {
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return 0, fmt.Errorf("loading submission %d: %w", subID, err)
	}
	if sub.Status.Terminal() {
		return 0, ErrAlreadyFinalized
	}

	rej, err := s.rejections.GetActive(ctx, subID)
	if err != nil {
		return 0, ErrNoActiveProposal
	}
	if strings.EqualFold(identity, rej.ProposedBy) {
		return len(rej.Seconders), ErrOwnProposal
	}
	if rej.HasSeconder(identity) {
		return len(rej.Seconders), ErrAlreadyRecorded
	}

	rej, err = s.rejections.AddSeconder(ctx, rej.ID, identity)
	if err != nil {
		return 0, fmt.Errorf("recording seconder: %w", err)
	}
	count := len(rej.Seconders)

	if count >= rejection.QuorumSeconders {
		// Compare-and-set so racing seconds produce one operator ask.
		reached, err := s.rejections.MarkQuorumReached(ctx, rej.ID)
		if err != nil {
			return count, fmt.Errorf("marking quorum reached: %w", err)
		}
		if !reached {
			return count, nil
		}

		intent := notify.NewIntent(notify.RecipientOperator, subID, notify.KindRejectionProposal,
			fmt.Sprintf("🚫 Rejection of 《%s》 has reached quorum (%s + seconds from %s).\n\nReason: %s\n\nConfirm to send the rejection, or dismiss to let the review continue.",
				sub.Title, "@"+rej.ProposedBy, mentionList(rej.Seconders), rej.Reason))
		intent.Buttons = [][]notify.Button{{
			{Label: "✅ Confirm and send rejection", Data: fmt.Sprintf("confirmrej|%d", subID)},
			{Label: "↩️ Dismiss proposal", Data: fmt.Sprintf("dismissrej|%d", subID)},
		}}
		s.send(ctx, intent)
	} else {
		s.send(ctx, notify.NewIntent(notify.RecipientGroup, subID, notify.KindRejectionProposal,
			fmt.Sprintf("🚫 Rejection of 《%s》 — seconded by %s (%d/%d seconds).",
				sub.Title, mentionList(rej.Seconders), count, rejection.QuorumSeconders)))
	}
	return count, nil
}

// Confirm is the operator's go-ahead: the proposal becomes CONFIRMED and
// the workflow performs the terminal rejection transition.
func (s *RejectionService) Confirm(ctx context.Context, subID int64) error {
	rej, err := s.rejections.GetActive(ctx, subID)
	if err != nil {
		return ErrNoActiveProposal
	}
	if rej.Status != rejection.StatusQuorumReached {
		return ErrQuorumNotReached
	}

	if err := s.rejections.UpdateStatus(ctx, rej.ID, rejection.StatusConfirmed); err != nil {
		return fmt.Errorf("confirming rejection: %w", err)
	}
	if err := s.workflow.Reject(ctx, subID, rej.Reason); err != nil {
		return err
	}
	s.logger.WithField("submission_id", subID).Info("Rejection confirmed by operator")
	return nil
}

// Dismiss discards the proposal; the submission resumes normal progression.
func (s *RejectionService) Dismiss(ctx context.Context, subID int64) error {
	rej, err := s.rejections.GetActive(ctx, subID)
	if err != nil {
		return ErrNoActiveProposal
	}
	if err := s.rejections.UpdateStatus(ctx, rej.ID, rejection.StatusDiscarded); err != nil {
		return fmt.Errorf("dismissing rejection: %w", err)
	}

	sub, err := s.subs.GetByID(ctx, subID)
	if err == nil {
		s.send(ctx, notify.NewIntent(notify.RecipientGroup, subID, notify.KindRejectionProposal,
			fmt.Sprintf("↩️ The rejection proposal for 《%s》 was dismissed. Review continues.", sub.Title)))
	}
	s.logger.WithField("submission_id", subID).Info("Rejection proposal dismissed")
	return nil
}

func (s *RejectionService) send(ctx context.Context, intent notify.Intent) {
	if err := s.gateway.Send(ctx, intent); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"submission_id": intent.SubmissionID,
			"kind":          intent.Kind,
		}).Warn("Notification send failed")
	}
}

// titleKeyword picks a short word from the title usable with /second.
func titleKeyword(title string, subID int64) string {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return fmt.Sprintf("%d", subID)
	}
	return strings.ToLower(fields[0])
}
