package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"clan_raids_bot/internal/app"
	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/team"
	"clan_raids_bot/internal/domain/toggle"
	idb "clan_raids_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to use this command."

const sayTargetPrefix = "chat:"

var errSayUsage = errors.New("usage: /say [chat:<chat_id>] <text>")

type toggleCommand struct {
	command string
	name    toggle.Name
	label   string
	flip    bool
}

var toggleCommands = []toggleCommand{
	{"/check_raids", toggle.Raids, "Raid notifications", false},
	{"/toggle_raids", toggle.Raids, "Raid notifications", true},
	{"/check_advlog", toggle.AdvLog, "Adventurer's log messages", false},
	{"/toggle_advlog", toggle.AdvLog, "Adventurer's log messages", true},
}

// RegisterAdminHandlers registers handlers for admin commands.
// The chat client is used by /say to post into other chats.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, sender chat.Client, baseLogger *logrus.Entry) {
	for _, tc := range toggleCommands {
		tc := tc
		b.Handle(tc.command, func(c telebot.Context) error {
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   tc.command,
				"sender_id": c.Sender().ID,
			})
			if !adminService.IsAdmin(c.Sender().ID) {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(unauthorizedReply)
			}

			var enabled bool
			var err error
			if tc.flip {
				enabled, err = adminService.FlipToggle(ctx, c.Sender().ID, tc.name)
			} else {
				enabled, err = adminService.CheckToggle(ctx, c.Sender().ID, tc.name)
			}
			if err != nil {
				handlerLogger.WithError(err).Error("Failed to access toggle")
				return c.Send(fmt.Sprintf("Could not read the %s setting: %s", tc.name, err.Error()))
			}

			handlerLogger.WithField("enabled", enabled).Info("Toggle command handled")
			if tc.flip {
				return c.Send(fmt.Sprintf("%s are now %s.", tc.label, enabledWord(enabled)))
			}
			return c.Send(fmt.Sprintf("%s are %s.", tc.label, enabledWord(enabled)))
		})
	}

	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		st, err := adminService.Status(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(unauthorizedReply)
			}
			handlerLogger.WithError(err).Error("Failed to build status")
			return c.Send(fmt.Sprintf("Could not build the status report: %s", err.Error()))
		}
		return c.Send(formatStatus(st), &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	})

	b.Handle("/running_teams", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/running_teams",
			"sender_id": c.Sender().ID,
		})
		teams, err := adminService.ListRunningTeams(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(unauthorizedReply)
			}
			handlerLogger.WithError(err).Error("Failed to list running teams")
			return c.Send(fmt.Sprintf("Could not list running teams: %s", err.Error()))
		}
		if len(teams) == 0 {
			return c.Send("No teams are collecting members right now.")
		}
		return c.Send(formatTeams(teams), &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	})

	b.Handle("/grant_role", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/grant_role",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		// Expected format: /grant_role <TelegramID> <role> [display name...]
		args := c.Args()
		if len(args) < 2 {
			return c.Send("Invalid format. Use: /grant_role <TelegramID> <role> [name]")
		}
		telegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: Telegram ID must be a number.")
		}
		displayName := strings.Join(args[2:], " ")

		g, err := adminService.GrantRole(ctx, c.Sender().ID, telegramID, args[1], displayName)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrInvalidRole):
				logWithError.Warn("Invalid role name")
				return c.Send("Error: role name must not be empty.")
			default:
				logWithError.Error("Failed to grant role")
				return c.Send(fmt.Sprintf("An error occurred while granting the role: %s", err.Error()))
			}
		}

		handlerLogger.WithFields(logrus.Fields{
			"telegram_id": g.TelegramID,
			"role":        g.Role,
		}).Info("Role granted")
		return c.Send(fmt.Sprintf("Role %s granted to %d.", g.Role, g.TelegramID))
	})

	b.Handle("/revoke_role", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/revoke_role",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		args := c.Args()
		if len(args) != 2 {
			return c.Send("Invalid format. Use: /revoke_role <TelegramID> <role>")
		}
		telegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: Telegram ID must be a number.")
		}

		if err := adminService.RevokeRole(ctx, c.Sender().ID, telegramID, args[1]); err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, idb.ErrGrantNotFound):
				logWithError.Warn("Role grant not found")
				return c.Send(fmt.Sprintf("%d does not have the role %s.", telegramID, args[1]))
			case errors.Is(err, app.ErrInvalidRole):
				return c.Send("Error: role name must not be empty.")
			default:
				logWithError.Error("Failed to revoke role")
				return c.Send(fmt.Sprintf("An error occurred while revoking the role: %s", err.Error()))
			}
		}
		handlerLogger.WithField("telegram_id", telegramID).Info("Role revoked")
		return c.Send(fmt.Sprintf("Role %s revoked from %d.", strings.ToLower(args[1]), telegramID))
	})

	b.Handle("/say", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/say",
			"sender_id": c.Sender().ID,
		})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		text, target, err := parseSayArgs(c.Args(), c.Chat().ID)
		if err != nil {
			return c.Send(err.Error())
		}
		handlerLogger = handlerLogger.WithField("target_chat_id", target)

		if _, err := sender.Send(ctx, target, html.EscapeString(text), chat.SendOptions{}); err != nil {
			handlerLogger.WithError(err).Warn("Failed to relay message")
			return c.Send(fmt.Sprintf("Could not send to chat %d: %s", target, err.Error()))
		}
		handlerLogger.Info("Message relayed")
		if target != c.Chat().ID {
			return c.Send(fmt.Sprintf("Sent to chat %d.", target))
		}
		return nil
	})
}

// parseSayArgs splits /say arguments into the text and the target chat.
// A leading chat:<id> argument selects the target, otherwise the current chat is used.
func parseSayArgs(args []string, currentChat int64) (string, int64, error) {
	if len(args) == 0 {
		return "", 0, errSayUsage
	}
	target := currentChat
	if raw, ok := strings.CutPrefix(args[0], sayTargetPrefix); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", 0, fmt.Errorf("invalid target chat %q: %w", raw, errSayUsage)
		}
		target = id
		args = args[1:]
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", 0, errSayUsage
	}
	return text, target, nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func formatStatus(st *app.Status) string {
	var b strings.Builder
	b.WriteString("<b>Status</b>\n")
	for _, t := range st.Toggles {
		fmt.Fprintf(&b, "\n%s: %s", t.Name, enabledWord(t.Enabled))
	}
	fmt.Fprintf(&b, "\n\nRunning teams: %d", st.RunningTeams)
	fmt.Fprintf(&b, "\nRole holders: %d", st.RoleHolders)
	fmt.Fprintf(&b, "\nUptime: %s", st.Uptime.Truncate(time.Second))
	return b.String()
}

func formatTeams(teams []*team.Team) string {
	var b strings.Builder
	b.WriteString("<b>Running teams</b>\n")
	for i, t := range teams {
		fmt.Fprintf(&b, "\n%d. %s (chat %d, since %s)\n<code>%s</code>",
			i+1, html.EscapeString(t.Title), t.ChatID, t.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), t.TeamID)
	}
	return b.String()
}
