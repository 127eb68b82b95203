package app

import (
	"context"
	"fmt"

	"clan_raids_bot/internal/domain/member"
)

// ApplicationService decides whether a member may apply for a role.
type ApplicationService struct {
	roles   member.Repository
	adminID int64
}

func NewApplicationService(rr member.Repository, adminID int64) *ApplicationService {
	return &ApplicationService{roles: rr, adminID: adminID}
}

// CanApply reports whether the user may apply for role, that is, does not hold it yet.
func (s *ApplicationService) CanApply(ctx context.Context, telegramID int64, role member.Role) (bool, error) {
	ok, err := s.roles.HasRole(ctx, telegramID, role)
	if err != nil {
		return false, fmt.Errorf("failed to check role %s: %w", role, err)
	}
	return !ok, nil
}

// CanRequestMembership reports whether the user is a guest and may ask to be promoted.
func (s *ApplicationService) CanRequestMembership(ctx context.Context, telegramID int64) (bool, error) {
	ok, err := s.roles.HasRole(ctx, telegramID, member.RoleGuest)
	if err != nil {
		return false, fmt.Errorf("failed to check guest role: %w", err)
	}
	return ok, nil
}

// AdminID is the user pinged by membership requests.
func (s *ApplicationService) AdminID() int64 {
	return s.adminID
}
