// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clan_raids_bot/internal/domain/chat"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const autoDeleteTimeout = 10 * time.Second

// TelebotAdapter implements the chat.Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot  *telebot.Bot
	feed *Feed
	log  *logrus.Entry
}

func NewTelebotAdapter(b *telebot.Bot, feed *Feed, log *logrus.Entry) *TelebotAdapter {
	return &TelebotAdapter{bot: b, feed: feed, log: log}
}

func htmlOptions() *telebot.SendOptions {
	return &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true}
}

func storedMessage(ref chat.MessageRef) telebot.StoredMessage {
	return telebot.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

// Send sends an HTML message to a chat and schedules its removal when opts.DeleteAfter is set.
func (tba *TelebotAdapter) Send(ctx context.Context, chatID int64, text string, opts chat.SendOptions) (chat.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chat.MessageRef{}, err
	}
	msg, err := tba.bot.Send(telebot.ChatID(chatID), text, htmlOptions())
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}

	ref := chat.MessageRef{ChatID: chatID, MessageID: msg.ID}
	if opts.DeleteAfter > 0 {
		time.AfterFunc(opts.DeleteAfter, func() {
			ctx, cancel := context.WithTimeout(context.Background(), autoDeleteTimeout)
			defer cancel()
			if err := tba.Delete(ctx, ref); err != nil && !errors.Is(err, chat.ErrMessageNotFound) {
				tba.log.WithError(err).WithField("message_id", ref.MessageID).Warn("Failed to auto-delete message")
			}
		})
	}
	return ref, nil
}

// Edit replaces the text of a sent message. Editing to identical content is not an error.
func (tba *TelebotAdapter) Edit(ctx context.Context, ref chat.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tba.bot.Edit(storedMessage(ref), text, htmlOptions())
	return translateError(err)
}

func (tba *TelebotAdapter) Delete(ctx context.Context, ref chat.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return translateError(tba.bot.Delete(storedMessage(ref)))
}

func (tba *TelebotAdapter) Subscribe(chatID int64, after int) chat.Stream {
	return tba.feed.Subscribe(chatID, after)
}

// translateError maps Telegram API descriptions onto the chat package errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	desc := err.Error()
	switch {
	case strings.Contains(desc, "message is not modified"):
		return nil
	case strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message to delete not found"),
		strings.Contains(desc, "MESSAGE_ID_INVALID"):
		return fmt.Errorf("%w: %v", chat.ErrMessageNotFound, err)
	default:
		return err
	}
}

// toChatMessage converts an inbound Telegram message.
func toChatMessage(m *telebot.Message) *chat.Message {
	if m == nil || m.Chat == nil {
		return nil
	}
	out := &chat.Message{
		Ref:    chat.MessageRef{ChatID: m.Chat.ID, MessageID: m.ID},
		Text:   m.Text,
		SentAt: m.Time(),
	}
	if m.Sender != nil {
		out.Author = chat.Member{
			ID:          m.Sender.ID,
			DisplayName: strings.TrimSpace(m.Sender.FirstName + " " + m.Sender.LastName),
			Username:    m.Sender.Username,
		}
	}
	return out
}
