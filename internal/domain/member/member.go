package member

import "time"

// Role is an eligibility credential held by a chat member.
type Role string

const (
	RoleRaids Role = "raids"
	RoleAoD   Role = "aod"
	RoleGuest Role = "guest" // Can ask for full membership with /member
)

// Grant records that a Telegram user holds a role.
// Corresponds to the 'member_roles' table.
type Grant struct {
	TelegramID  int64
	Role        Role
	DisplayName string
	GrantedAt   time.Time
}
