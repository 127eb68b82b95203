// internal/app/raid_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/domain/raid"
	"clan_raids_bot/internal/domain/team"
	"clan_raids_bot/internal/domain/toggle"
	"clan_raids_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNotificationsDisabled = fmt.Errorf("raid notifications are disabled")
var ErrSessionActive = fmt.Errorf("a roster session is already open")

// RaidSettings describes where and how raid rosters are collected.
type RaidSettings struct {
	RaidsChatID     int64 // Announcement and roster display
	PublicChatID    int64 // Invite prompt and `in`/`out` commands
	Role            member.Role
	Capacity        int
	SessionDuration time.Duration
	MessageTTL      time.Duration // Auto-expiry of the announcement and the display
	PollWait        time.Duration // Longest wait for a single stream message
	RefreshInterval time.Duration // Display re-render period without roster changes, PollWait when zero
	ClanName        string
	RaidsChatTitle  string // Named by the invite as the place the team is shown
	RaidsChatLink   string
	PublicChatTitle string // Named by the announcement as the place to sign up
	PublicChatLink  string
}

// RaidService dispatches raid notifications and opens roster sessions.
// At most one roster session is open at a time.
type RaidService struct {
	chat     chat.Client
	toggles  *ToggleStore
	roles    member.Repository
	teams    team.Repository
	settings RaidSettings
	botID    int64
	now      func() time.Time
	log      *logrus.Entry

	active atomic.Bool
}

func NewRaidService(
	cc chat.Client,
	ts *ToggleStore,
	rr member.Repository,
	tr team.Repository,
	settings RaidSettings,
	botID int64,
	now func() time.Time,
	log *logrus.Entry,
) *RaidService {
	if settings.Capacity < 1 {
		settings.Capacity = raid.DefaultCapacity
	}
	if settings.SessionDuration <= 0 {
		settings.SessionDuration = raid.DefaultSessionDuration
	}
	if now == nil {
		now = time.Now
	}
	return &RaidService{
		chat:     cc,
		toggles:  ts,
		roles:    rr,
		teams:    tr,
		settings: settings,
		botID:    botID,
		now:      now,
		log:      log,
	}
}

// Settings returns the roster settings the service was built with.
func (s *RaidService) Settings() RaidSettings {
	return s.settings
}

// Active reports whether a roster session is currently open.
func (s *RaidService) Active() bool {
	return s.active.Load()
}

// CanJoin reports whether the user holds the role required to join a roster.
func (s *RaidService) CanJoin(ctx context.Context, telegramID int64) (bool, error) {
	ok, err := s.roles.HasRole(ctx, telegramID, s.settings.Role)
	if err != nil {
		return false, fmt.Errorf("failed to check raid role: %w", err)
	}
	return ok, nil
}

// Fire sends the announcement, the empty roster display and the invite prompt,
// then returns the opened session. Nothing is sent when notifications are disabled.
// Any delivery failure aborts the dispatch for this cycle.
func (s *RaidService) Fire(ctx context.Context) (*RosterSession, error) {
	if !s.active.CompareAndSwap(false, true) {
		metrics.RecordNotification(metrics.ResultSkippedActive)
		return nil, ErrSessionActive
	}
	opened := false
	defer func() {
		if !opened {
			s.active.Store(false)
		}
	}()

	if !s.toggles.IsEnabled(ctx, toggle.Raids) {
		s.log.Info("Raid notification not sent. Disabled.")
		metrics.RecordNotification(metrics.ResultDisabled)
		return nil, ErrNotificationsDisabled
	}

	ttl := chat.SendOptions{DeleteAfter: s.settings.MessageTTL}
	holders, err := s.roles.ListByRole(ctx, s.settings.Role)
	if err != nil {
		// The announcement still goes out, only without the role ping.
		s.log.WithError(err).Warn("Failed to list role holders for the announcement")
		holders = nil
	}

	if _, err := s.chat.Send(ctx, s.settings.RaidsChatID, announcementText(s.settings, holders), ttl); err != nil {
		metrics.RecordNotification(metrics.ResultFailed)
		return nil, fmt.Errorf("failed to send raid announcement: %w", err)
	}

	roster := raid.NewRoster(s.settings.Capacity)
	display, err := s.chat.Send(ctx, s.settings.RaidsChatID, rosterDisplayText(roster), ttl)
	if err != nil {
		metrics.RecordNotification(metrics.ResultFailed)
		return nil, fmt.Errorf("failed to send roster display: %w", err)
	}

	invite, err := s.chat.Send(ctx, s.settings.PublicChatID, inviteText(s.settings), chat.SendOptions{})
	if err != nil {
		metrics.RecordNotification(metrics.ResultFailed)
		return nil, fmt.Errorf("failed to send raid invite: %w", err)
	}

	id := uuid.NewString()
	session := raid.NewSession(id, s.now(), s.settings.Capacity, display, s.settings.PublicChatID, invite.MessageID)
	stream := s.chat.Subscribe(s.settings.PublicChatID, invite.MessageID)

	if err := s.teams.Create(ctx, &team.Team{
		TeamID:   id,
		Title:    "Raids",
		ChatID:   s.settings.PublicChatID,
		AuthorID: s.botID,
	}); err != nil {
		s.log.WithError(err).WithField("session_id", id).Warn("Failed to register running team")
	}

	opened = true
	metrics.RecordNotification(metrics.ResultSent)
	s.log.WithFields(logrus.Fields{
		"session_id": id,
		"display":    display.MessageID,
		"cursor":     invite.MessageID,
	}).Info("Sent raid notification")

	return &RosterSession{
		session:  session,
		stream:   stream,
		chat:     s.chat,
		roles:    s.roles,
		teams:    s.teams,
		settings: s.settings,
		botID:    s.botID,
		now:      s.now,
		log:      s.log.WithField("session_id", id),
		release:  func() { s.active.Store(false) },
	}, nil
}

// RunCycle fires and runs the roster session to completion.
// A disabled toggle or an already open session is not an error.
func (s *RaidService) RunCycle(ctx context.Context) error {
	rs, err := s.Fire(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotificationsDisabled):
			return nil
		case errors.Is(err, ErrSessionActive):
			s.log.Warn("Raid fire skipped, a roster session is still open")
			return nil
		default:
			return err
		}
	}
	state := rs.Run(ctx)
	s.log.WithFields(logrus.Fields{
		"session_id": rs.Session().ID,
		"state":      state,
		"members":    rs.Session().Roster.Len(),
	}).Info("Roster session finished")
	return nil
}
