package raid

import "clan_raids_bot/internal/domain/chat"

// DefaultCapacity is the raid team size.
const DefaultCapacity = 10

// Roster is the ordered, capped list of members committed to a raid.
// Insertion order is display order and every member appears at most once.
type Roster struct {
	capacity int
	entries  []chat.Member
}

func NewRoster(capacity int) *Roster {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Roster{capacity: capacity, entries: make([]chat.Member, 0, capacity)}
}

func (r *Roster) Capacity() int { return r.capacity }

func (r *Roster) Len() int { return len(r.entries) }

func (r *Roster) Full() bool { return len(r.entries) >= r.capacity }

// Entries returns a copy of the committed entries in display order.
func (r *Roster) Entries() []chat.Member {
	out := make([]chat.Member, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Roster) Contains(memberID int64) bool {
	return r.indexOf(memberID) >= 0
}

func (r *Roster) indexOf(memberID int64) int {
	for i, m := range r.entries {
		if m.ID == memberID {
			return i
		}
	}
	return -1
}

// Join applies an `in` command. Capacity is checked first, then eligibility, then duplicates.
func (r *Roster) Join(m chat.Member, eligible bool) JoinOutcome {
	if r.Full() {
		return JoinFull
	}
	if !eligible {
		return JoinNotEligible
	}
	if r.Contains(m.ID) {
		return JoinAlreadyIn
	}
	r.entries = append(r.entries, m)
	return JoinAccepted
}

// Leave applies an `out` command.
func (r *Roster) Leave(memberID int64) LeaveOutcome {
	i := r.indexOf(memberID)
	if i < 0 {
		return LeaveNotIn
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	return LeaveAccepted
}
