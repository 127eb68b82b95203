package chat

import (
	"fmt"
	"html"
	"strconv"
	"time"
)

// MessageRef points at a message that was delivered to a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Member is the author of a chat message.
type Member struct {
	ID          int64
	DisplayName string
	Username    string
}

// Message is an inbound chat message.
type Message struct {
	Ref    MessageRef
	Author Member
	Text   string
	SentAt time.Time
}

// Name returns the best human readable name for the member.
func (m Member) Name() string {
	switch {
	case m.DisplayName != "":
		return m.DisplayName
	case m.Username != "":
		return "@" + m.Username
	default:
		return strconv.FormatInt(m.ID, 10)
	}
}

// Mention renders an HTML mention that notifies the member.
func (m Member) Mention() string {
	return MentionUser(m.ID, m.Name())
}

// MentionUser renders an HTML mention link for a user id.
func MentionUser(id int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, id, html.EscapeString(name))
}
