// internal/infra/telegram/gateway.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"tem_review_bot/internal/domain/notify"
	"tem_review_bot/internal/infra/email"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Client is the minimal surface the gateway needs from the bot transport.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}

// Gateway routes notification intents to their transport: group and
// reviewer intents go to the group chat, operator intents to the operator's
// direct chat (falling back to the group), author intents to email.
type Gateway struct {
	client         Client
	mail           email.Sender
	groupChatID    int64
	operatorChatID int64 // 0 when no operator is configured
	logger         *logrus.Entry
}

func NewGateway(client Client, mail email.Sender, groupChatID, operatorChatID int64, logger *logrus.Entry) *Gateway {
	return &Gateway{
		client:         client,
		mail:           mail,
		groupChatID:    groupChatID,
		operatorChatID: operatorChatID,
		logger:         logger,
	}
}

func (g *Gateway) Send(ctx context.Context, intent notify.Intent) error {
	logCtx := g.logger.WithFields(logrus.Fields{
		"intent_id":     intent.ID,
		"kind":          intent.Kind,
		"recipient":     intent.Recipient,
		"submission_id": intent.SubmissionID,
	})

	switch intent.Recipient {
	case notify.RecipientAuthor:
		if g.mail == nil {
			logCtx.Warn("Author intent dropped, no mail sender configured")
			return nil
		}
		if intent.Email == "" {
			return fmt.Errorf("author intent %s has no email address", intent.ID)
		}
		subject := intent.Subject
		if subject == "" {
			subject = "TEM Review Update"
		}
		if err := g.mail.Send(ctx, intent.Email, subject, intent.Text); err != nil {
			return err
		}
		logCtx.Info("Intent delivered by mail")
		return nil

	case notify.RecipientOperator:
		chatID := g.operatorChatID
		if chatID == 0 {
			chatID = g.groupChatID
		}
		return g.sendChat(logCtx, chatID, intent)

	default: // group and reviewer intents land in the group chat
		return g.sendChat(logCtx, g.groupChatID, intent)
	}
}

func (g *Gateway) sendChat(logCtx *logrus.Entry, chatID int64, intent notify.Intent) error {
	if err := g.client.SendMessage(chatID, intent.Text, buttonOptions(intent.Buttons)); err != nil {
		return fmt.Errorf("sending to chat %d: %w", chatID, err)
	}
	logCtx.Info("Intent delivered to chat")
	return nil
}

// buttonOptions renders intent button rows as a telebot inline keyboard.
// Button data is "action|payload"; the action becomes the telebot unique
// so callback handlers can register per action.
func buttonOptions(rows [][]notify.Button) *telebot.SendOptions {
	if len(rows) == 0 {
		return nil
	}
	markup := &telebot.ReplyMarkup{}
	tbRows := make([]telebot.Row, 0, len(rows))
	for _, row := range rows {
		btns := make([]telebot.Btn, 0, len(row))
		for _, b := range row {
			parts := strings.SplitN(b.Data, "|", 2)
			if len(parts) == 2 {
				btns = append(btns, markup.Data(b.Label, parts[0], parts[1]))
			} else {
				btns = append(btns, markup.Data(b.Label, parts[0]))
			}
		}
		tbRows = append(tbRows, markup.Row(btns...))
	}
	markup.Inline(tbRows...)
	return &telebot.SendOptions{ReplyMarkup: markup}
}
