package toggle

import "time"

// Name identifies a persisted feature toggle.
type Name string

const (
	Raids       Name = "raids"        // Raid notifications and roster sessions
	AdvLog      Name = "advlog"       // Adventurer's log relay messages
	SecretSanta Name = "secret_santa" // Secret santa event
)

// Default is the value a toggle is created with on first access.
func (n Name) Default() bool {
	switch n {
	case SecretSanta:
		return false
	default:
		return true
	}
}

// Known lists every toggle the bot manages.
func Known() []Name {
	return []Name{Raids, AdvLog, SecretSanta}
}

// State is a single persisted toggle.
// Corresponds to the 'feature_toggles' table.
type State struct {
	Name      Name
	Enabled   bool
	UpdatedAt time.Time
}
