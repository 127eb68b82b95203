package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/domain/team"
	"clan_raids_bot/internal/domain/toggle"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrInvalidRole = fmt.Errorf("role name must not be empty")

type AdminService struct {
	toggles         *ToggleStore
	roleRepo        member.Repository
	teamRepo        team.Repository
	adminTelegramID int64
	startedAt       time.Time
	now             func() time.Time
}

func NewAdminService(ts *ToggleStore, rr member.Repository, tr team.Repository, adminID int64, now func() time.Time) *AdminService {
	if now == nil {
		now = time.Now
	}
	return &AdminService{
		toggles:         ts,
		roleRepo:        rr,
		teamRepo:        tr,
		adminTelegramID: adminID,
		startedAt:       now(),
		now:             now,
	}
}

// ToggleStatus is a single toggle line of the status report.
type ToggleStatus struct {
	Name    toggle.Name
	Enabled bool
}

// Status summarizes the bot state for the admin.
type Status struct {
	Toggles      []ToggleStatus
	RunningTeams int
	RoleHolders  int
	Uptime       time.Duration
}

func (s *AdminService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

// CheckToggle returns the current value of a toggle.
func (s *AdminService) CheckToggle(ctx context.Context, performingAdminID int64, name toggle.Name) (bool, error) {
	if !s.IsAdmin(performingAdminID) {
		return false, ErrAdminNotAuthorized
	}
	return s.toggles.Get(ctx, name)
}

// FlipToggle inverts a toggle and returns its new value.
func (s *AdminService) FlipToggle(ctx context.Context, performingAdminID int64, name toggle.Name) (bool, error) {
	if !s.IsAdmin(performingAdminID) {
		return false, ErrAdminNotAuthorized
	}
	return s.toggles.Toggle(ctx, name)
}

// GrantRole gives a role to a Telegram user. Granting an existing role refreshes the display name.
func (s *AdminService) GrantRole(ctx context.Context, performingAdminID int64, telegramID int64, role string, displayName string) (*member.Grant, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	r := normalizeRole(role)
	if r == "" {
		return nil, ErrInvalidRole
	}

	g := &member.Grant{
		TelegramID:  telegramID,
		Role:        r,
		DisplayName: strings.TrimSpace(displayName),
	}
	if err := s.roleRepo.Grant(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to grant role in repository: %w", err)
	}
	return g, nil
}

// RevokeRole removes a role from a Telegram user. Returns database.ErrGrantNotFound if the user did not hold it.
func (s *AdminService) RevokeRole(ctx context.Context, performingAdminID int64, telegramID int64, role string) error {
	if !s.IsAdmin(performingAdminID) {
		return ErrAdminNotAuthorized
	}
	r := normalizeRole(role)
	if r == "" {
		return ErrInvalidRole
	}
	return s.roleRepo.Revoke(ctx, telegramID, r)
}

// ListRunningTeams returns the registry of rosters that are collecting members.
func (s *AdminService) ListRunningTeams(ctx context.Context, performingAdminID int64) ([]*team.Team, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list running teams: %w", err)
	}
	return teams, nil
}

func (s *AdminService) Status(ctx context.Context, performingAdminID int64) (*Status, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	st := &Status{Uptime: s.now().Sub(s.startedAt)}
	for _, name := range toggle.Known() {
		enabled, err := s.toggles.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		st.Toggles = append(st.Toggles, ToggleStatus{Name: name, Enabled: enabled})
	}

	var err error
	if st.RunningTeams, err = s.teamRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count running teams: %w", err)
	}
	if st.RoleHolders, err = s.roleRepo.CountMembers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count role holders: %w", err)
	}
	return st, nil
}

func normalizeRole(role string) member.Role {
	return member.Role(strings.ToLower(strings.TrimSpace(role)))
}
