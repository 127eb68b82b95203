package telegram

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterRaidHandlers feeds plain text messages to the roster streams.
// The bot needs privacy mode disabled to receive `in`/`out` in group chats.
func RegisterRaidHandlers(b *telebot.Bot, feed *Feed, baseLogger *logrus.Entry) {
	feedLogger := baseLogger.WithField("handler", "on_text")

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		m := toChatMessage(c.Message())
		if m == nil {
			return nil
		}
		feedLogger.WithFields(logrus.Fields{
			"chat_id":    m.Ref.ChatID,
			"message_id": m.Ref.MessageID,
			"sender_id":  m.Author.ID,
		}).Debug("Message received")
		feed.Publish(m)
		return nil
	})
}
