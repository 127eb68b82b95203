// internal/domain/raid/shared_types.go
package raid

import "strings"

// Command is a roster command typed into the public chat.
type Command string

const (
	CommandNone Command = ""
	CommandIn   Command = "in"
	CommandOut  Command = "out"
)

// ParseCommand normalizes message text and maps it to a roster command.
func ParseCommand(text string) Command {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case string(CommandIn):
		return CommandIn
	case string(CommandOut):
		return CommandOut
	default:
		return CommandNone
	}
}

// JoinOutcome is the result of an `in` command.
type JoinOutcome string

const (
	JoinAccepted    JoinOutcome = "accepted"
	JoinFull        JoinOutcome = "full"
	JoinNotEligible JoinOutcome = "not_eligible"
	JoinAlreadyIn   JoinOutcome = "already_in"
)

// LeaveOutcome is the result of an `out` command.
type LeaveOutcome string

const (
	LeaveAccepted LeaveOutcome = "accepted"
	LeaveNotIn    LeaveOutcome = "not_in"
)

// SessionState tracks the lifecycle of a roster session.
type SessionState string

const (
	StateOpen             SessionState = "OPEN"
	StateExpired          SessionState = "EXPIRED"
	StateClosedExternally SessionState = "CLOSED_EXTERNALLY"
	// StateCancelled is reached only when the process shuts down mid-session.
	StateCancelled SessionState = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s != StateOpen
}
