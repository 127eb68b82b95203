package team

import "time"

// Team is a registry row for a roster that is currently collecting members.
// Corresponds to the 'teams' table.
type Team struct {
	ID        int64
	TeamID    string // Roster session id
	Title     string
	ChatID    int64 // Chat the roster is collected in
	AuthorID  int64
	CreatedAt time.Time
}
