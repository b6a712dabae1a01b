// internal/infra/telegram/callback_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"tem_review_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterCallbackHandlers wires the inline-button actions: reviewer
// confirmations and declines, per-reviewer done marks, and operator
// confirmation of rejection proposals. Buttons are addressed to one person;
// presses by anyone else get a toast and change nothing.
func RegisterCallbackHandlers(
	ctx context.Context,
	b *telebot.Bot,
	workflow *app.WorkflowService,
	rejections *app.RejectionService,
	operatorID int64,
	baseLogger *logrus.Entry,
) {
	logger := baseLogger.WithField("handler_group", "callbacks")

	b.Handle(&telebot.Btn{Unique: "accept"}, func(c telebot.Context) error {
		subID, handle, ok := parseAssignmentPayload(c, logger)
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Malformed button data."})
		}
		if !strings.EqualFold(c.Sender().Username, handle) {
			return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("This button is for @%s.", handle)})
		}

		err := workflow.AcceptAssignment(ctx, subID, handle)
		switch err {
		case nil:
			return c.Respond(&telebot.CallbackResponse{Text: "Confirmed, thanks!"})
		case app.ErrAlreadyRecorded:
			return c.Respond(&telebot.CallbackResponse{Text: "Already recorded!"})
		case app.ErrAlreadyFinalized:
			return c.Respond(&telebot.CallbackResponse{Text: "This submission is already finalized."})
		case app.ErrNotAssigned:
			return c.Respond(&telebot.CallbackResponse{Text: "You are not assigned to this submission."})
		default:
			logger.WithError(err).WithField("submission_id", subID).Error("Accept callback failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	})

	b.Handle(&telebot.Btn{Unique: "decline"}, func(c telebot.Context) error {
		subID, handle, ok := parseAssignmentPayload(c, logger)
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Malformed button data."})
		}
		if !strings.EqualFold(c.Sender().Username, handle) {
			return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("This button is for @%s.", handle)})
		}

		err := workflow.DeclineAssignment(ctx, subID, handle)
		switch err {
		case nil:
			return c.Respond(&telebot.CallbackResponse{Text: "Noted. Looking for a replacement…"})
		case app.ErrAlreadyRecorded:
			return c.Respond(&telebot.CallbackResponse{Text: "Already recorded!"})
		case app.ErrAlreadyFinalized:
			return c.Respond(&telebot.CallbackResponse{Text: "This submission is already finalized."})
		case app.ErrNotAssigned:
			return c.Respond(&telebot.CallbackResponse{Text: "You are not assigned to this submission."})
		default:
			logger.WithError(err).WithField("submission_id", subID).Error("Decline callback failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	})

	b.Handle(&telebot.Btn{Unique: "done"}, func(c telebot.Context) error {
		subID, handle, ok := parseAssignmentPayload(c, logger)
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Malformed button data."})
		}
		if !strings.EqualFold(c.Sender().Username, handle) {
			return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("This button is for @%s.", handle)})
		}

		err := workflow.MarkDone(ctx, subID, handle)
		switch err {
		case nil:
			return c.Respond(&telebot.CallbackResponse{Text: "✅ Review marked as done!"})
		case app.ErrAlreadyRecorded:
			return c.Respond(&telebot.CallbackResponse{Text: "Already recorded!"})
		case app.ErrNotUnderReview:
			return c.Respond(&telebot.CallbackResponse{Text: "This submission is not under review."})
		case app.ErrAlreadyFinalized:
			return c.Respond(&telebot.CallbackResponse{Text: "This submission is already finalized."})
		case app.ErrNotAssigned:
			return c.Respond(&telebot.CallbackResponse{Text: "You are not assigned to this submission."})
		default:
			logger.WithError(err).WithField("submission_id", subID).Error("Done callback failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	})

	b.Handle(&telebot.Btn{Unique: "confirmrej"}, func(c telebot.Context) error {
		if operatorID != 0 && c.Sender().ID != operatorID {
			return c.Respond(&telebot.CallbackResponse{Text: "Only the operator can confirm rejections."})
		}
		subID, ok := parseSubmissionPayload(c, logger)
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Malformed button data."})
		}

		err := rejections.Confirm(ctx, subID)
		switch err {
		case nil:
			return c.Respond(&telebot.CallbackResponse{Text: "Rejection confirmed."})
		case app.ErrNoActiveProposal:
			return c.Respond(&telebot.CallbackResponse{Text: "No active rejection proposal."})
		case app.ErrQuorumNotReached:
			return c.Respond(&telebot.CallbackResponse{Text: "The proposal has not reached quorum yet."})
		case app.ErrAlreadyFinalized:
			return c.Respond(&telebot.CallbackResponse{Text: "This submission is already finalized."})
		default:
			logger.WithError(err).WithField("submission_id", subID).Error("Rejection confirm callback failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	})

	b.Handle(&telebot.Btn{Unique: "dismissrej"}, func(c telebot.Context) error {
		if operatorID != 0 && c.Sender().ID != operatorID {
			return c.Respond(&telebot.CallbackResponse{Text: "Only the operator can dismiss rejections."})
		}
		subID, ok := parseSubmissionPayload(c, logger)
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Malformed button data."})
		}

		err := rejections.Dismiss(ctx, subID)
		switch err {
		case nil:
			return c.Respond(&telebot.CallbackResponse{Text: "Proposal dismissed."})
		case app.ErrNoActiveProposal:
			return c.Respond(&telebot.CallbackResponse{Text: "No active rejection proposal."})
		default:
			logger.WithError(err).WithField("submission_id", subID).Error("Rejection dismiss callback failed")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	})
}

// parseAssignmentPayload reads "<submissionID>|<handle>" from the callback.
func parseAssignmentPayload(c telebot.Context, logger *logrus.Entry) (int64, string, bool) {
	data := c.Callback().Data
	parts := strings.SplitN(data, "|", 2)
	if len(parts) != 2 {
		logger.WithField("data", data).Warn("Malformed assignment callback payload")
		return 0, "", false
	}
	subID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		logger.WithField("data", data).Warn("Non-numeric submission ID in callback payload")
		return 0, "", false
	}
	return subID, parts[1], true
}

// parseSubmissionPayload reads "<submissionID>" from the callback.
func parseSubmissionPayload(c telebot.Context, logger *logrus.Entry) (int64, bool) {
	data := c.Callback().Data
	subID, err := strconv.ParseInt(strings.TrimSpace(data), 10, 64)
	if err != nil {
		logger.WithField("data", data).Warn("Non-numeric submission ID in callback payload")
		return 0, false
	}
	return subID, true
}
