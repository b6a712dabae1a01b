package app

import (
	"context"
	"testing"

	"tem_review_bot/internal/domain/notify"
	"tem_review_bot/internal/domain/rejection"
	"tem_review_bot/internal/domain/submission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionPropose(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a proposal and announces it", func(t *testing.T) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusUnderReview)

		require.NoError(t, env.rejection.Propose(ctx, sub.ID, "alice", "not technical enough"))

		rej, err := env.rejections.GetActive(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, rejection.StatusProposed, rej.Status)
		assert.Equal(t, "alice", rej.ProposedBy)
		assert.Empty(t, rej.Seconders)

		announcements := env.gateway.byKind(notify.KindRejectionProposal)
		require.Len(t, announcements, 1)
		assert.Contains(t, announcements[0].Text, "/second")
	})

	t.Run("only one open proposal per submission", func(t *testing.T) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusUnderReview)
		require.NoError(t, env.rejection.Propose(ctx, sub.ID, "alice", "reason one"))

		err := env.rejection.Propose(ctx, sub.ID, "bob", "reason two")
		assert.ErrorIs(t, err, ErrProposalOpen)
	})

	t.Run("refused on finalized submissions", func(t *testing.T) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusPublished)

		err := env.rejection.Propose(ctx, sub.ID, "alice", "late objection")
		assert.ErrorIs(t, err, ErrAlreadyFinalized)
	})
}

func TestRejectionSecond(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T) (*testEnv, *submission.Submission) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusUnderReview)
		require.NoError(t, env.rejection.Propose(ctx, sub.ID, "alice", "not technical enough"))
		env.gateway.reset()
		return env, sub
	}

	t.Run("one seconder is below quorum", func(t *testing.T) {
		env, sub := open(t)

		count, err := env.rejection.Second(ctx, sub.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		rej, _ := env.rejections.GetActive(ctx, sub.ID)
		assert.Equal(t, rejection.StatusProposed, rej.Status)
		assert.Empty(t, env.gateway.byKind(notify.KindRejectionProposal)[0].Buttons)
	})

	t.Run("second distinct seconder reaches quorum and asks the operator", func(t *testing.T) {
		env, sub := open(t)
		_, err := env.rejection.Second(ctx, sub.ID, "bob")
		require.NoError(t, err)

		count, err := env.rejection.Second(ctx, sub.ID, "carol")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		rej, _ := env.rejections.GetActive(ctx, sub.ID)
		assert.Equal(t, rejection.StatusQuorumReached, rej.Status)
		// Quorum alone never rejects.
		assert.Equal(t, submission.StatusUnderReview, sub.Status)

		var operatorAsk []notify.Intent
		for _, i := range env.gateway.byKind(notify.KindRejectionProposal) {
			if i.Recipient == notify.RecipientOperator {
				operatorAsk = append(operatorAsk, i)
			}
		}
		require.Len(t, operatorAsk, 1)
		require.Len(t, operatorAsk[0].Buttons, 1)
		assert.Len(t, operatorAsk[0].Buttons[0], 2) // confirm + dismiss
	})

	t.Run("the operator is asked exactly once past quorum", func(t *testing.T) {
		env, sub := open(t)
		_, err := env.rejection.Second(ctx, sub.ID, "bob")
		require.NoError(t, err)
		_, err = env.rejection.Second(ctx, sub.ID, "carol")
		require.NoError(t, err)

		// A further second past quorum loses the status compare-and-set
		// and must not re-send the confirmation ask.
		count, err := env.rejection.Second(ctx, sub.ID, "dave")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		var operatorAsk int
		for _, i := range env.gateway.byKind(notify.KindRejectionProposal) {
			if i.Recipient == notify.RecipientOperator {
				operatorAsk++
			}
		}
		assert.Equal(t, 1, operatorAsk)
	})

	t.Run("duplicate second is a no-op", func(t *testing.T) {
		env, sub := open(t)
		_, err := env.rejection.Second(ctx, sub.ID, "bob")
		require.NoError(t, err)

		count, err := env.rejection.Second(ctx, sub.ID, "bob")
		assert.ErrorIs(t, err, ErrAlreadyRecorded)
		assert.Equal(t, 1, count)
	})

	t.Run("proposer cannot second their own proposal", func(t *testing.T) {
		env, sub := open(t)

		_, err := env.rejection.Second(ctx, sub.ID, "alice")
		assert.ErrorIs(t, err, ErrOwnProposal)
	})

	t.Run("no active proposal", func(t *testing.T) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusUnderReview)

		_, err := env.rejection.Second(ctx, sub.ID, "bob")
		assert.ErrorIs(t, err, ErrNoActiveProposal)
	})
}

func TestRejectionConfirmAndDismiss(t *testing.T) {
	ctx := context.Background()

	atQuorum := func(t *testing.T) (*testEnv, *submission.Submission) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusUnderReview)
		require.NoError(t, env.rejection.Propose(ctx, sub.ID, "alice", "not technical enough"))
		_, err := env.rejection.Second(ctx, sub.ID, "bob")
		require.NoError(t, err)
		_, err = env.rejection.Second(ctx, sub.ID, "carol")
		require.NoError(t, err)
		env.gateway.reset()
		return env, sub
	}

	t.Run("confirmation performs the terminal rejection", func(t *testing.T) {
		env, sub := atQuorum(t)

		require.NoError(t, env.rejection.Confirm(ctx, sub.ID))

		assert.Equal(t, submission.StatusRejected, sub.Status)
		_, err := env.rejections.GetActive(ctx, sub.ID)
		assert.Error(t, err, "proposal must no longer be active")

		var authorIntent *notify.Intent
		for _, i := range env.gateway.byKind(notify.KindRejection) {
			if i.Recipient == notify.RecipientAuthor {
				authorIntent = &i
				break
			}
		}
		require.NotNil(t, authorIntent)
		assert.Contains(t, authorIntent.Text, "not technical enough")
	})

	t.Run("confirmation before quorum is refused", func(t *testing.T) {
		env := newTestEnv(t, true)
		sub := env.addSubmission(t, "Weak Draft", submission.StatusUnderReview)
		require.NoError(t, env.rejection.Propose(ctx, sub.ID, "alice", "reason"))

		err := env.rejection.Confirm(ctx, sub.ID)
		assert.ErrorIs(t, err, ErrQuorumNotReached)
		assert.Equal(t, submission.StatusUnderReview, sub.Status)
	})

	t.Run("dismissal lets the review continue", func(t *testing.T) {
		env, sub := atQuorum(t)

		require.NoError(t, env.rejection.Dismiss(ctx, sub.ID))

		assert.Equal(t, submission.StatusUnderReview, sub.Status)
		_, err := env.rejections.GetActive(ctx, sub.ID)
		assert.Error(t, err)

		err = env.rejection.Confirm(ctx, sub.ID)
		assert.ErrorIs(t, err, ErrNoActiveProposal)
	})
}
