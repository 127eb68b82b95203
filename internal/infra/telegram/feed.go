package telegram

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"clan_raids_bot/internal/domain/chat"

	"github.com/sirupsen/logrus"
)

// DefaultFeedBuffer is the number of recent messages kept per chat.
const DefaultFeedBuffer = 200

type feedEntry struct {
	seq uint64
	msg *chat.Message
}

type chatBuffer struct {
	entries []feedEntry // Ordered by seq
	lastSeq uint64
}

// Feed turns inbound Telegram updates into per-chat message streams.
// Telegram has no history API for bots, so subscribers read from a bounded buffer
// of recent messages instead. Each message is stamped with a per-chat arrival
// sequence and streams advance by that sequence, so a message published late
// is still delivered to a stream that already moved past a newer one.
type Feed struct {
	mu      sync.Mutex
	limit   int
	log     logrus.FieldLogger
	watched map[int64]bool // Empty means every chat
	chats   map[int64]*chatBuffer
	changed chan struct{} // Closed and replaced on every publish
}

func NewFeed(limit int, log logrus.FieldLogger, chatIDs ...int64) *Feed {
	if limit < 1 {
		limit = DefaultFeedBuffer
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	f := &Feed{
		limit:   limit,
		log:     log,
		watched: make(map[int64]bool, len(chatIDs)),
		chats:   make(map[int64]*chatBuffer),
		changed: make(chan struct{}),
	}
	for _, id := range chatIDs {
		f.watched[id] = true
	}
	return f
}

// Publish adds a message to its chat buffer and wakes waiting subscribers.
// Messages from unwatched chats and duplicates are dropped.
func (f *Feed) Publish(m *chat.Message) {
	if m == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	id := m.Ref.ChatID
	if len(f.watched) > 0 && !f.watched[id] {
		return
	}

	b := f.chats[id]
	if b == nil {
		b = &chatBuffer{}
		f.chats[id] = b
	}
	for _, e := range b.entries {
		if e.msg.Ref.MessageID == m.Ref.MessageID {
			return
		}
	}
	b.lastSeq++
	b.entries = append(b.entries, feedEntry{seq: b.lastSeq, msg: m})
	if len(b.entries) > f.limit {
		b.entries = b.entries[len(b.entries)-f.limit:]
	}

	close(f.changed)
	f.changed = make(chan struct{})
}

// Subscribe returns a stream over chatID yielding, in arrival order, the
// buffered and future messages whose id is greater than after.
func (f *Feed) Subscribe(chatID int64, after int) chat.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()

	var cursor uint64
	if b := f.chats[chatID]; b != nil {
		cursor = b.lastSeq
		if len(b.entries) > 0 {
			cursor = b.entries[0].seq - 1
		}
	}
	return &feedStream{feed: f, chatID: chatID, after: after, cursor: cursor}
}

// next returns the first message after cursor with an id above after, the
// cursor to resume from and how many unread entries were evicted since cursor.
// With no such message it returns the channel to wait on.
func (f *Feed) next(chatID int64, after int, cursor uint64) (*chat.Message, uint64, uint64, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b := f.chats[chatID]
	if b == nil {
		return nil, cursor, 0, f.changed
	}

	var evicted uint64
	if len(b.entries) > 0 && b.entries[0].seq > cursor+1 {
		evicted = b.entries[0].seq - cursor - 1
		cursor = b.entries[0].seq - 1
	}

	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].seq > cursor })
	for _, e := range b.entries[i:] {
		cursor = e.seq
		if e.msg.Ref.MessageID > after {
			return e.msg, cursor, evicted, nil
		}
	}
	return nil, cursor, evicted, f.changed
}

type feedStream struct {
	feed   *Feed
	chatID int64
	after  int

	mu     sync.Mutex
	cursor uint64
	closed bool
}

func (s *feedStream) Next(ctx context.Context, wait time.Duration) (*chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, nil
		}
		m, cursor, evicted, changed := s.feed.next(s.chatID, s.after, s.cursor)
		s.cursor = cursor
		s.mu.Unlock()

		if evicted > 0 {
			s.feed.log.WithFields(logrus.Fields{
				"chat_id": s.chatID,
				"evicted": evicted,
			}).Warn("Feed buffer overflowed, unread messages were dropped")
		}
		if m != nil {
			return m, nil
		}

		if timeout == nil {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, nil
		case <-changed:
		}
	}
}

func (s *feedStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
