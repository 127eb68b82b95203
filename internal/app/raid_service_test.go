package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/domain/raid"
	"clan_raids_bot/internal/domain/toggle"
)

const (
	raidsChatID  int64 = -1001
	publicChatID int64 = -1002
	botID        int64 = 42
)

type raidFixture struct {
	clock   *fakeClock
	chat    *fakeChat
	roles   *fakeRoles
	toggles *fakeToggleRepo
	teams   *fakeTeams
	svc     *RaidService
}

func newRaidFixture(t *testing.T, eligible ...int64) *raidFixture {
	t.Helper()
	clock := newFakeClock(time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC))
	f := &raidFixture{
		clock:   clock,
		chat:    newFakeChat(clock),
		roles:   newFakeRoles(eligible...),
		toggles: newFakeToggleRepo(),
		teams:   newFakeTeams(),
	}
	settings := RaidSettings{
		RaidsChatID:     raidsChatID,
		PublicChatID:    publicChatID,
		Role:            member.RoleRaids,
		Capacity:        10,
		SessionDuration: 60 * time.Minute,
		MessageTTL:      90 * time.Minute,
		PollWait:        5 * time.Second,
		RefreshInterval: 30 * time.Second,
	}
	log := testLogger()
	f.svc = NewRaidService(f.chat, NewToggleStore(f.toggles, log), f.roles, f.teams, settings, botID, clock.Now, log)
	return f
}

var nextMessageID = 1000

func cmd(authorID int64, text string) *chat.Message {
	nextMessageID++
	return &chat.Message{
		Ref:    chat.MessageRef{ChatID: publicChatID, MessageID: nextMessageID},
		Author: chat.Member{ID: authorID, DisplayName: fmt.Sprintf("player%d", authorID)},
		Text:   text,
	}
}

func countReplies(msgs []sentMessage, substr string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m.Text, substr) {
			n++
		}
	}
	return n
}

func TestFire_SendsAnnouncementDisplayAndInvite(t *testing.T) {
	f := newRaidFixture(t, 1)
	rs, err := f.svc.Fire(context.Background())
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}

	toRaids := f.chat.sentTo(raidsChatID)
	if len(toRaids) != 2 {
		t.Fatalf("raids chat messages = %d, want 2", len(toRaids))
	}
	for _, m := range toRaids {
		if m.Opts.DeleteAfter != 90*time.Minute {
			t.Errorf("DeleteAfter = %v, want 90m", m.Opts.DeleteAfter)
		}
	}
	if !strings.Contains(toRaids[0].Text, `tg://user?id=1`) {
		t.Errorf("announcement does not mention role holder: %q", toRaids[0].Text)
	}
	if !strings.Contains(toRaids[1].Text, "0/10") {
		t.Errorf("display = %q, want 0/10", toRaids[1].Text)
	}

	toPublic := f.chat.sentTo(publicChatID)
	if len(toPublic) != 1 {
		t.Fatalf("public chat messages = %d, want 1", len(toPublic))
	}
	invite := toPublic[0]
	if invite.Opts.DeleteAfter != 0 {
		t.Errorf("invite should not expire")
	}

	s := rs.Session()
	if s.Display != toRaids[1].Ref {
		t.Errorf("display ref = %+v, want %+v", s.Display, toRaids[1].Ref)
	}
	if s.Cursor != invite.Ref.MessageID || f.chat.subscribedAfter != invite.Ref.MessageID {
		t.Errorf("cursor = %d, subscribed after %d, want %d", s.Cursor, f.chat.subscribedAfter, invite.Ref.MessageID)
	}
	if f.chat.subscribedChat != publicChatID {
		t.Errorf("subscribed chat = %d", f.chat.subscribedChat)
	}
	if n, _ := f.teams.Count(context.Background()); n != 1 {
		t.Errorf("running teams = %d, want 1", n)
	}
	if s.State != raid.StateOpen {
		t.Errorf("state = %s", s.State)
	}
}

func TestFire_DisabledToggleSendsNothing(t *testing.T) {
	f := newRaidFixture(t, 1)
	f.toggles.set(toggle.Raids, false)

	rs, err := f.svc.Fire(context.Background())
	if !errors.Is(err, ErrNotificationsDisabled) {
		t.Fatalf("err = %v, want ErrNotificationsDisabled", err)
	}
	if rs != nil {
		t.Fatal("session created while disabled")
	}
	if len(f.chat.sent) != 0 {
		t.Fatalf("sent %d messages while disabled", len(f.chat.sent))
	}
	if f.chat.subscribedAfter != 0 {
		t.Fatal("subscribed while disabled")
	}
	if f.svc.Active() {
		t.Fatal("guard left active")
	}
	if err := f.svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle while disabled: %v", err)
	}
}

func TestFire_UnreadableToggleDoesNotFire(t *testing.T) {
	f := newRaidFixture(t, 1)
	f.toggles.fail(errors.New("connection refused"))

	if _, err := f.svc.Fire(context.Background()); !errors.Is(err, ErrNotificationsDisabled) {
		t.Fatalf("err = %v, want ErrNotificationsDisabled", err)
	}
	if len(f.chat.sent) != 0 {
		t.Fatalf("sent %d messages", len(f.chat.sent))
	}
}

func TestFire_DeliveryFailureAborts(t *testing.T) {
	f := newRaidFixture(t, 1)
	f.chat.sendErr = errors.New("forbidden: bot is not a member of the chat")

	if _, err := f.svc.Fire(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.svc.Active() {
		t.Fatal("guard left active after failed dispatch")
	}
	if n, _ := f.teams.Count(context.Background()); n != 0 {
		t.Fatalf("running teams = %d, want 0", n)
	}
}

func TestFire_OnlyOneActiveSession(t *testing.T) {
	f := newRaidFixture(t, 1)
	rs, err := f.svc.Fire(context.Background())
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	sent := len(f.chat.sent)

	if _, err := f.svc.Fire(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Fire err = %v, want ErrSessionActive", err)
	}
	if len(f.chat.sent) != sent {
		t.Fatal("second Fire sent messages")
	}

	if state := rs.Run(context.Background()); state != raid.StateExpired {
		t.Fatalf("state = %s, want EXPIRED", state)
	}
	if f.svc.Active() {
		t.Fatal("guard still active after session end")
	}
	if _, err := f.svc.Fire(context.Background()); err != nil {
		t.Fatalf("Fire after session end: %v", err)
	}
}
