// internal/infra/telegram/command_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"tem_review_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterCommandHandlers wires the keyword commands. Each command names
// its target submission by a title keyword or numeric ID; resolution and
// validation live in the router, handlers only adapt the transport.
func RegisterCommandHandlers(
	ctx context.Context,
	b *telebot.Bot,
	router *app.CommandRouter,
	baseLogger *logrus.Entry,
) {
	logger := baseLogger.WithField("handler_group", "commands")

	dispatch := func(c telebot.Context, verb app.Verb, usage string, keywordOnly bool) error {
		logCtx := logger.WithFields(logrus.Fields{
			"verb":      verb,
			"sender_id": c.Sender().ID,
		})

		keyword, args := splitPayload(c.Message().Payload)
		if keyword == "" && usage != "" {
			return c.Send(usage)
		}
		if keywordOnly && args != "" {
			// Commands like /done take the whole payload as the keyword.
			keyword = strings.TrimSpace(c.Message().Payload)
			args = ""
		}

		reply, err := router.Execute(ctx, app.Command{
			Issuer:   c.Sender().Username,
			IssuerID: c.Sender().ID,
			Verb:     verb,
			Keyword:  keyword,
			Args:     args,
		})
		if err != nil {
			logCtx.WithError(err).Error("Command execution failed")
			return c.Send("Something went wrong, please try again later.")
		}
		return c.Send(reply)
	}

	b.Handle("/start", func(c telebot.Context) error {
		logger.WithField("sender_id", c.Sender().ID).Info("Processing /start command")
		return c.Send("Hi! I coordinate article reviews for the TEM Medium column. Use /help for the command list.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		logger.WithField("sender_id", c.Sender().ID).Info("Processing /help command")
		var help strings.Builder
		help.WriteString("Available commands:\n\n")
		help.WriteString("`/status`\n - List active submissions and their reviewers.\n\n")
		help.WriteString("`/done <keyword_or_id>`\n - Mark your review of a submission as done.\n\n")
		help.WriteString("`/reject <keyword_or_id> <reason>`\n - Propose rejecting a submission.\n\n")
		help.WriteString("`/second <keyword_or_id>`\n - Second an open rejection proposal.\n\n")
		help.WriteString("`/override <keyword_or_id> @user1 [@user2]`\n - Replace the proposed reviewers (operator).\n\n")
		help.WriteString("`/content <keyword_or_id> <text>`\n - Provide article content for assignment (operator).\n\n")
		help.WriteString("`/skip <keyword_or_id>`\n - Skip the content request and assign by title (operator).\n\n")
		help.WriteString("`/getid`\n - Show this chat's ID and your user ID.")
		return c.Send(help.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	// Setup helper for filling in GROUP_CHAT_ID and OPERATOR_TELEGRAM_ID.
	b.Handle("/getid", func(c telebot.Context) error {
		logger.WithField("sender_id", c.Sender().ID).Info("Processing /getid command")
		return c.Send(fmt.Sprintf("Chat ID: `%d`\nYour user ID: `%d`", c.Chat().ID, c.Sender().ID),
			&telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/status", func(c telebot.Context) error {
		return dispatch(c, app.VerbStatusQuery, "", false)
	})

	b.Handle("/done", func(c telebot.Context) error {
		return dispatch(c, app.VerbMarkDone, "Usage: /done <keyword_or_id>", true)
	})

	b.Handle("/reject", func(c telebot.Context) error {
		return dispatch(c, app.VerbRejectPropose, "Usage: /reject <keyword_or_id> <reason>", false)
	})

	b.Handle("/second", func(c telebot.Context) error {
		return dispatch(c, app.VerbRejectSecond, "Usage: /second <keyword_or_id>", true)
	})

	b.Handle("/override", func(c telebot.Context) error {
		return dispatch(c, app.VerbOverrideAssign, "Usage: /override <keyword_or_id> @user1 [@user2]", false)
	})

	b.Handle("/content", func(c telebot.Context) error {
		return dispatch(c, app.VerbContentProvide, "Usage: /content <keyword_or_id> <article text>", false)
	})

	b.Handle("/skip", func(c telebot.Context) error {
		return dispatch(c, app.VerbContentSkip, "Usage: /skip <keyword_or_id>", true)
	})
}

// splitPayload separates the command payload into the target keyword and
// the remaining argument text.
func splitPayload(payload string) (keyword, args string) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", ""
	}
	parts := strings.SplitN(payload, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
