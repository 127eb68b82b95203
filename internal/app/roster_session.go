package app

import (
	"context"
	"errors"
	"time"

	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/domain/raid"
	"clan_raids_bot/internal/domain/team"
	idb "clan_raids_bot/internal/infra/database"
	"clan_raids_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

const (
	maxBatchSize    = 50
	cleanupTimeout  = 5 * time.Second
	defaultPollWait = 5 * time.Second
)

// RosterSession consumes `in`/`out` commands from the public chat and keeps the
// roster display up to date until it expires or the display is deleted.
// All roster mutations happen on the goroutine that calls Run.
type RosterSession struct {
	session  *raid.Session
	stream   chat.Stream
	chat     chat.Client
	roles    member.Repository
	teams    team.Repository
	settings RaidSettings
	botID    int64
	now      func() time.Time
	log      *logrus.Entry
	release  func()

	lastRender time.Time
}

func (rs *RosterSession) Session() *raid.Session {
	return rs.session
}

// Run blocks until the session reaches a terminal state and returns it.
// Cancelling ctx ends the session as cancelled.
func (rs *RosterSession) Run(ctx context.Context) raid.SessionState {
	defer rs.finish()

	pollWait := rs.settings.PollWait
	if pollWait <= 0 {
		pollWait = defaultPollWait
	}
	// Without an explicit interval the display is re-rendered after every wait.
	refresh := rs.settings.RefreshInterval
	if refresh <= 0 {
		refresh = pollWait
	}
	rs.lastRender = rs.now()

	for {
		batch, err := rs.nextBatch(ctx, pollWait)
		if err != nil {
			rs.session.Close(raid.StateCancelled)
			rs.log.WithError(err).Info("Roster session cancelled")
			return rs.session.State
		}

		dirty := false
		for _, m := range batch {
			if rs.handle(ctx, m) {
				dirty = true
			}
			rs.session.Advance(m.Ref.MessageID)
		}

		now := rs.now()
		if dirty || now.Sub(rs.lastRender) >= refresh {
			err := rs.chat.Edit(ctx, rs.session.Display, rosterDisplayText(rs.session.Roster))
			switch {
			case errors.Is(err, chat.ErrMessageNotFound):
				rs.session.Close(raid.StateClosedExternally)
				rs.log.Info("Roster display was deleted, closing roster session")
				return rs.session.State
			case err != nil:
				rs.log.WithError(err).Error("Failed to update roster display")
			}
			rs.lastRender = now
		}

		if rs.session.Expired(rs.now(), rs.settings.SessionDuration) {
			rs.session.Close(raid.StateExpired)
			rs.log.Info("No longer accepting raid team entries")
			return rs.session.State
		}
	}
}

// nextBatch waits up to wait for one message, then drains whatever is already buffered.
func (rs *RosterSession) nextBatch(ctx context.Context, wait time.Duration) ([]*chat.Message, error) {
	m, err := rs.stream.Next(ctx, wait)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	batch := []*chat.Message{m}
	for len(batch) < maxBatchSize {
		m, err = rs.stream.Next(ctx, 0)
		if err != nil || m == nil {
			break
		}
		batch = append(batch, m)
	}
	return batch, nil
}

// handle applies one message and reports whether the roster changed.
func (rs *RosterSession) handle(ctx context.Context, m *chat.Message) bool {
	if m.Author.ID == rs.botID {
		return false
	}
	switch raid.ParseCommand(m.Text) {
	case raid.CommandIn:
		return rs.handleIn(ctx, m)
	case raid.CommandOut:
		return rs.handleOut(ctx, m)
	default:
		return false
	}
}

func (rs *RosterSession) handleIn(ctx context.Context, m *chat.Message) bool {
	rs.deleteCommand(ctx, m)
	roster := rs.session.Roster

	// A full roster is reported without looking up the role.
	if roster.Full() {
		rs.reply(ctx, fullReply(m.Author, roster))
		metrics.RecordCommand(string(raid.CommandIn), string(raid.JoinFull))
		return false
	}

	eligible, err := rs.roles.HasRole(ctx, m.Author.ID, rs.settings.Role)
	if err != nil {
		rs.log.WithError(err).WithField("member_id", m.Author.ID).Error("Failed to check raid role")
		rs.reply(ctx, verifyFailedReply(m.Author))
		metrics.RecordCommand(string(raid.CommandIn), "error")
		return false
	}

	outcome := roster.Join(m.Author, eligible)
	metrics.RecordCommand(string(raid.CommandIn), string(outcome))
	switch outcome {
	case raid.JoinAccepted:
		metrics.SetRosterSize(roster.Len())
		rs.log.WithFields(logrus.Fields{"member_id": m.Author.ID, "size": roster.Len()}).Info("Member joined raid team")
		rs.reply(ctx, joinedReply(m.Author, roster))
		return true
	case raid.JoinFull:
		rs.reply(ctx, fullReply(m.Author, roster))
	case raid.JoinNotEligible:
		rs.reply(ctx, notEligibleReply(m.Author))
	case raid.JoinAlreadyIn:
		rs.reply(ctx, alreadyInReply(m.Author))
	}
	return false
}

func (rs *RosterSession) handleOut(ctx context.Context, m *chat.Message) bool {
	rs.deleteCommand(ctx, m)
	roster := rs.session.Roster

	outcome := roster.Leave(m.Author.ID)
	metrics.RecordCommand(string(raid.CommandOut), string(outcome))
	if outcome != raid.LeaveAccepted {
		rs.reply(ctx, notInReply(m.Author))
		return false
	}
	metrics.SetRosterSize(roster.Len())
	rs.log.WithFields(logrus.Fields{"member_id": m.Author.ID, "size": roster.Len()}).Info("Member left raid team")
	rs.reply(ctx, leftReply(m.Author, roster))
	return true
}

func (rs *RosterSession) deleteCommand(ctx context.Context, m *chat.Message) {
	if err := rs.chat.Delete(ctx, m.Ref); err != nil && !errors.Is(err, chat.ErrMessageNotFound) {
		rs.log.WithError(err).WithField("message_id", m.Ref.MessageID).Warn("Failed to delete roster command")
	}
}

func (rs *RosterSession) reply(ctx context.Context, text string) {
	if _, err := rs.chat.Send(ctx, rs.session.PublicChatID, text, chat.SendOptions{}); err != nil {
		rs.log.WithError(err).Warn("Failed to send roster reply")
	}
}

func (rs *RosterSession) finish() {
	rs.stream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := rs.teams.Delete(ctx, rs.session.ID); err != nil && !errors.Is(err, idb.ErrTeamNotFound) {
		rs.log.WithError(err).Warn("Failed to unregister running team")
	}

	switch rs.session.State {
	case raid.StateExpired:
		metrics.RecordSessionEnd(metrics.EndExpired)
	case raid.StateClosedExternally:
		metrics.RecordSessionEnd(metrics.EndClosed)
	default:
		metrics.RecordSessionEnd(metrics.EndCancelled)
	}
	rs.release()
}
