package raid

import (
	"time"

	"clan_raids_bot/internal/domain/chat"
)

// DefaultSessionDuration bounds how long a roster accepts commands.
const DefaultSessionDuration = 60 * time.Minute

// Session is the state of one roster collection window.
// Corresponds to a row in the 'teams' registry while it is open.
type Session struct {
	ID           string
	StartedAt    time.Time
	Roster       *Roster
	Display      chat.MessageRef // Roster message re-rendered after every processed batch
	PublicChatID int64          // Chat the `in`/`out` commands are read from
	Cursor       int            // Id of the last consumed public chat message
	State        SessionState
}

func NewSession(id string, startedAt time.Time, capacity int, display chat.MessageRef, publicChatID int64, cursor int) *Session {
	return &Session{
		ID:           id,
		StartedAt:    startedAt,
		Roster:       NewRoster(capacity),
		Display:      display,
		PublicChatID: publicChatID,
		Cursor:       cursor,
		State:        StateOpen,
	}
}

// Advance moves the cursor forward; it never moves back.
func (s *Session) Advance(messageID int) {
	if messageID > s.Cursor {
		s.Cursor = messageID
	}
}

// Expired reports whether more than limit has elapsed since the session started.
func (s *Session) Expired(now time.Time, limit time.Duration) bool {
	return now.Sub(s.StartedAt) > limit
}

// Close moves an open session into a terminal state. Terminal states are final.
func (s *Session) Close(state SessionState) {
	if s.State.Terminal() || !state.Terminal() {
		return
	}
	s.State = state
}
