// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"clan_raids_bot/internal/app"
	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cfg *config.AppConfig, // For AdminTelegramID
	raidService *app.RaidService,
	applications *app.ApplicationService,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == cfg.AdminTelegramID {
			return c.Send(fmt.Sprintf("Hi, admin %s! I'm up and running. Use /help for the command list.", c.Sender().FirstName))
		}
		return c.Send("Hi! I post the clan raid notifications and keep the raid team roster. Use /help to see what I can do.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("<b>Commands</b>\n\n")
		helpText.WriteString("<code>/raids</code>\n - Apply for access to the clan raids.\n\n")
		helpText.WriteString("<code>/aod</code>\n - Apply for access to the AoD teams.\n\n")
		helpText.WriteString("<code>/member</code>\n - Ask an admin to promote you from guest.\n\n")
		helpText.WriteString("<code>in</code> / <code>out</code>\n - Join or leave the raid team while sign-ups are open.\n\n")
		helpText.WriteString("<code>/help</code>\n - Show this message.")

		if senderID == cfg.AdminTelegramID {
			helpText.WriteString("\n\n<b>Admin commands</b>\n\n")
			helpText.WriteString("<code>/check_raids</code>, <code>/toggle_raids</code>\n - Show or flip raid notifications.\n\n")
			helpText.WriteString("<code>/check_advlog</code>, <code>/toggle_advlog</code>\n - Show or flip adventurer's log messages.\n\n")
			helpText.WriteString("<code>/status</code>\n - Toggles, running teams, role holders and uptime.\n\n")
			helpText.WriteString("<code>/running_teams</code>\n - List rosters that are collecting members.\n\n")
			helpText.WriteString("<code>/grant_role &lt;TelegramID&gt; &lt;role&gt; [name]</code>\n - Give a role to a member.\n\n")
			helpText.WriteString("<code>/revoke_role &lt;TelegramID&gt; &lt;role&gt;</code>\n - Take a role from a member.\n\n")
			helpText.WriteString("<code>/say [chat:&lt;chat_id&gt;] &lt;text&gt;</code>\n - Send a message as the bot, to the current chat unless a target is given.")
		}
		if cfg.BotRepoURL != "" {
			fmt.Fprintf(&helpText, "\n\n<a href=\"%s\">Source code</a>", html.EscapeString(cfg.BotRepoURL))
		}
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true})
	})

	b.Handle("/raids", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "/raids",
			"sender_id": senderID,
		})
		logCtx.Info("Command received")

		ok, err := raidService.CanJoin(ctx, senderID)
		if err != nil {
			logCtx.WithError(err).Error("Error checking raid role for /raids command")
			return c.Send("Something went wrong while checking your roles. Please try again later.")
		}
		if ok {
			return c.Send("Fool! You already have permission to join raids!")
		}
		return c.Send(raidApplicationText(raidService.Settings()), &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true})
	})

	b.Handle("/aod", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "/aod",
			"sender_id": senderID,
		})
		logCtx.Info("Command received")

		ok, err := applications.CanApply(ctx, senderID, member.RoleAoD)
		if err != nil {
			logCtx.WithError(err).Error("Error checking AoD role for /aod command")
			return c.Send("Something went wrong while checking your roles. Please try again later.")
		}
		if !ok {
			return c.Send("Fool! You already have permission to join the AoD teams!")
		}
		return c.Send(aodApplicationText(), &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true})
	})

	memberRequest := func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := baseLogger.WithFields(logrus.Fields{
			"handler":   "/member",
			"sender_id": senderID,
		})
		logCtx.Info("Command received")

		ok, err := applications.CanRequestMembership(ctx, senderID)
		if err != nil {
			logCtx.WithError(err).Error("Error checking guest role for /member command")
			return c.Send("Something went wrong while checking your roles. Please try again later.")
		}
		if !ok {
			return c.Send("Fool! You are not a guest!")
		}
		return c.Send(membershipRequestText(applications.AdminID()), &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	}
	b.Handle("/member", memberRequest)
	b.Handle("/role", memberRequest)
}

func raidApplicationText(s app.RaidSettings) string {
	return fmt.Sprintf(`Hi! You applied for the <code>%s</code> role to join the clan raids.

Please post a screenshot in the raids chat that follows the rules pinned at the top of the chat.

<b>Include in the screenshot:</b>
 → The <code>Equipment</code> tab you will use
 → The <code>Inventory</code> tab you will use
 → <b>Perks of every weapon and armour you plan to use</b>
 → Your <code>Stats</code>
 → Your combat <code>Ability bar</code>
 → Your in-game <code>username</code>

An admin will review it and grant the role.`, html.EscapeString(string(s.Role)))
}

func aodApplicationText() string {
	return fmt.Sprintf(`Hi! You applied for the <code>%s</code> role to join the clan's Nex: AoD teams.

Please post a screenshot in the AoD chat that follows the rules pinned at the top of the chat.

<b>Include in the screenshot:</b>
 → The <code>Equipment</code> tab you will use
 → The <code>Inventory</code> tab you will use
 → <b>Perks of every weapon and armour you plan to use</b>
 → Your <code>Stats</code>
 → Your combat <code>Ability bar</code>
 → Your in-game <code>username</code>

An AoD teacher will review it and grant the role.`, member.RoleAoD)
}

func membershipRequestText(adminID int64) string {
	return fmt.Sprintf("Please tell us your in-game username.\n\n%s - this guest would like a rank above guest. Please take a look :)",
		chat.MentionUser(adminID, "Admin"))
}
