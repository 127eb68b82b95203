package app

import (
	"context"
	"io"
	"sync"
	"time"

	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/domain/team"
	"clan_raids_bot/internal/domain/toggle"
	idb "clan_raids_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentMessage struct {
	Ref  chat.MessageRef
	Text string
	Opts chat.SendOptions
}

type fakeChat struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []sentMessage
	deleted []chat.MessageRef

	sendErr error
	editErr error

	stream          *fakeStream
	subscribedChat  int64
	subscribedAfter int
}

func newFakeChat(clock *fakeClock) *fakeChat {
	return &fakeChat{nextID: 100, stream: &fakeStream{clock: clock}}
}

func (f *fakeChat) Send(_ context.Context, chatID int64, text string, opts chat.SendOptions) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return chat.MessageRef{}, f.sendErr
	}
	f.nextID++
	ref := chat.MessageRef{ChatID: chatID, MessageID: f.nextID}
	f.sent = append(f.sent, sentMessage{Ref: ref, Text: text, Opts: opts})
	return ref, nil
}

func (f *fakeChat) Edit(_ context.Context, ref chat.MessageRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, sentMessage{Ref: ref, Text: text})
	return nil
}

func (f *fakeChat) Delete(_ context.Context, ref chat.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeChat) Subscribe(chatID int64, after int) chat.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribedChat = chatID
	f.subscribedAfter = after
	return f.stream
}

func (f *fakeChat) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.Ref.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeChat) lastEdit() (sentMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return sentMessage{}, false
	}
	return f.edits[len(f.edits)-1], true
}

// fakeStream returns queued messages in order. An idle wait advances the clock instead of sleeping.
type fakeStream struct {
	mu     sync.Mutex
	clock  *fakeClock
	queue  []*chat.Message
	idle   int
	closed bool
}

func (s *fakeStream) push(msgs ...*chat.Message) {
	s.mu.Lock()
	s.queue = append(s.queue, msgs...)
	s.mu.Unlock()
}

func (s *fakeStream) Next(ctx context.Context, wait time.Duration) (*chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		m := s.queue[0]
		s.queue = s.queue[1:]
		return m, nil
	}
	if wait > 0 {
		s.idle++
		s.clock.Advance(wait)
	}
	return nil, nil
}

func (s *fakeStream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type fakeRoles struct {
	mu      sync.Mutex
	holders map[int64]member.Grant
	hasErr  error
	listErr error
	lookups int
}

func newFakeRoles(ids ...int64) *fakeRoles {
	r := &fakeRoles{holders: make(map[int64]member.Grant)}
	for _, id := range ids {
		r.holders[id] = member.Grant{TelegramID: id, Role: member.RoleRaids}
	}
	return r
}

func (r *fakeRoles) Grant(_ context.Context, g *member.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.GrantedAt = time.Now()
	r.holders[g.TelegramID] = *g
	return nil
}

func (r *fakeRoles) Revoke(_ context.Context, telegramID int64, role member.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.holders[telegramID]
	if !ok || g.Role != role {
		return idb.ErrGrantNotFound
	}
	delete(r.holders, telegramID)
	return nil
}

func (r *fakeRoles) HasRole(_ context.Context, telegramID int64, role member.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.hasErr != nil {
		return false, r.hasErr
	}
	g, ok := r.holders[telegramID]
	return ok && g.Role == role, nil
}

func (r *fakeRoles) ListByRole(_ context.Context, role member.Role) ([]*member.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*member.Grant
	for _, g := range r.holders {
		g := g
		if g.Role == role {
			out = append(out, &g)
		}
	}
	return out, nil
}

func (r *fakeRoles) CountMembers(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holders), nil
}

type fakeToggleRepo struct {
	mu     sync.Mutex
	values map[toggle.Name]bool
	err    error
}

func newFakeToggleRepo() *fakeToggleRepo {
	return &fakeToggleRepo{values: make(map[toggle.Name]bool)}
}

func (r *fakeToggleRepo) GetOrCreate(_ context.Context, name toggle.Name, def bool) (*toggle.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.values[name]
	if !ok {
		v = def
		r.values[name] = v
	}
	return &toggle.State{Name: name, Enabled: v}, nil
}

func (r *fakeToggleRepo) Toggle(_ context.Context, name toggle.Name, def bool) (*toggle.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	v, ok := r.values[name]
	if !ok {
		v = def
	}
	r.values[name] = !v
	return &toggle.State{Name: name, Enabled: !v}, nil
}

func (r *fakeToggleRepo) set(name toggle.Name, v bool) {
	r.mu.Lock()
	r.values[name] = v
	r.mu.Unlock()
}

func (r *fakeToggleRepo) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

type fakeTeams struct {
	mu      sync.Mutex
	rows    map[string]*team.Team
	created int
}

func newFakeTeams() *fakeTeams {
	return &fakeTeams{rows: make(map[string]*team.Team)}
}

func (r *fakeTeams) Create(_ context.Context, t *team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	t.ID = int64(r.created)
	t.CreatedAt = time.Now()
	cp := *t
	r.rows[t.TeamID] = &cp
	return nil
}

func (r *fakeTeams) Delete(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[teamID]; !ok {
		return idb.ErrTeamNotFound
	}
	delete(r.rows, teamID)
	return nil
}

func (r *fakeTeams) List(_ context.Context) ([]*team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*team.Team, 0, len(r.rows))
	for _, t := range r.rows {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTeams) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func (r *fakeTeams) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.rows {
		if t.CreatedAt.Before(before) {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}
