package raid

import (
	"fmt"
	"testing"
	"time"

	"clan_raids_bot/internal/domain/chat"
)

func member(id int64) chat.Member {
	return chat.Member{ID: id, DisplayName: fmt.Sprintf("player%d", id)}
}

func TestRoster_CapacityAndOrder(t *testing.T) {
	r := NewRoster(DefaultCapacity)
	for i := int64(1); i <= 10; i++ {
		if got := r.Join(member(i), true); got != JoinAccepted {
			t.Fatalf("join %d: want accepted, got %s", i, got)
		}
	}
	if got := r.Join(member(11), true); got != JoinFull {
		t.Fatalf("11th join: want full, got %s", got)
	}
	entries := r.Entries()
	if len(entries) != 10 {
		t.Fatalf("want 10 entries, got %d", len(entries))
	}
	for i, m := range entries {
		if m.ID != int64(i+1) {
			t.Fatalf("position %d: want member %d, got %d", i, i+1, m.ID)
		}
	}
}

func TestRoster_FullCheckedBeforeEligibility(t *testing.T) {
	r := NewRoster(1)
	r.Join(member(1), true)
	if got := r.Join(member(2), false); got != JoinFull {
		t.Fatalf("want full, got %s", got)
	}
}

func TestRoster_IdempotentJoin(t *testing.T) {
	r := NewRoster(DefaultCapacity)
	if got := r.Join(member(7), true); got != JoinAccepted {
		t.Fatalf("first join: %s", got)
	}
	if got := r.Join(member(7), true); got != JoinAlreadyIn {
		t.Fatalf("second join: want already_in, got %s", got)
	}
	if r.Len() != 1 {
		t.Fatalf("want 1 entry, got %d", r.Len())
	}
}

func TestRoster_NotEligible(t *testing.T) {
	r := NewRoster(DefaultCapacity)
	if got := r.Join(member(3), false); got != JoinNotEligible {
		t.Fatalf("want not_eligible, got %s", got)
	}
	if r.Contains(3) {
		t.Fatalf("ineligible member must not be added")
	}
}

func TestRoster_JoinLeaveJoin(t *testing.T) {
	r := NewRoster(DefaultCapacity)
	r.Join(member(1), true)
	r.Join(member(2), true)

	if got := r.Leave(1); got != LeaveAccepted {
		t.Fatalf("leave: want accepted, got %s", got)
	}
	if got := r.Leave(1); got != LeaveNotIn {
		t.Fatalf("second leave: want not_in, got %s", got)
	}
	if got := r.Join(member(1), true); got != JoinAccepted {
		t.Fatalf("rejoin: want accepted, got %s", got)
	}

	entries := r.Entries()
	if len(entries) != 2 || entries[0].ID != 2 || entries[1].ID != 1 {
		t.Fatalf("rejoin should append like a fresh join, got %+v", entries)
	}
}

func TestRoster_EntriesIsACopy(t *testing.T) {
	r := NewRoster(DefaultCapacity)
	r.Join(member(1), true)
	entries := r.Entries()
	entries[0].ID = 99
	if !r.Contains(1) {
		t.Fatalf("mutating the copy must not touch the roster")
	}
}

func TestParseCommand(t *testing.T) {
	cases := map[string]Command{
		"in":       CommandIn,
		"IN":       CommandIn,
		" In ":     CommandIn,
		"out":      CommandOut,
		"OuT":      CommandOut,
		"in out":   CommandNone,
		"inn":      CommandNone,
		"":         CommandNone,
		"/in":      CommandNone,
		"count me": CommandNone,
	}
	for in, want := range cases {
		if got := ParseCommand(in); got != want {
			t.Fatalf("%q: want %q, got %q", in, want, got)
		}
	}
}

func TestSession_CursorIsMonotonic(t *testing.T) {
	s := NewSession("s1", time.Now(), DefaultCapacity, chat.MessageRef{}, 1, 10)
	s.Advance(12)
	s.Advance(11)
	if s.Cursor != 12 {
		t.Fatalf("cursor moved back to %d", s.Cursor)
	}
}

func TestSession_Expired(t *testing.T) {
	start := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	s := NewSession("s1", start, DefaultCapacity, chat.MessageRef{}, 1, 0)
	if s.Expired(start.Add(60*time.Minute), DefaultSessionDuration) {
		t.Fatalf("exactly 60 minutes is not past the limit")
	}
	if !s.Expired(start.Add(60*time.Minute+time.Second), DefaultSessionDuration) {
		t.Fatalf("expected expiry after 60 minutes")
	}
}

func TestSession_CloseIsFinal(t *testing.T) {
	s := NewSession("s1", time.Now(), DefaultCapacity, chat.MessageRef{}, 1, 0)
	s.Close(StateClosedExternally)
	s.Close(StateExpired)
	if s.State != StateClosedExternally {
		t.Fatalf("terminal state changed to %s", s.State)
	}
}
