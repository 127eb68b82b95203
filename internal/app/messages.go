package app

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"clan_raids_bot/internal/domain/chat"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/domain/raid"
)

const (
	separator       = "──────────"
	maxRoleMentions = 50
	clanBannerURL   = "http://services.runescape.com/m=avatar-rs/l=3/a=869/%s/clanmotif.png"
)

// chatRef names a chat, linked when a link is configured.
func chatRef(title, link, fallback string) string {
	if title == "" {
		title = fallback
	}
	if link == "" {
		return "<b>" + html.EscapeString(title) + "</b>"
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(link), html.EscapeString(title))
}

func announcementText(s RaidSettings, holders []*member.Grant) string {
	var b strings.Builder
	b.WriteString("<b>Raids</b>\n")

	if len(holders) > 0 {
		mentions := make([]string, 0, maxRoleMentions)
		for i, g := range holders {
			if i == maxRoleMentions {
				break
			}
			name := g.DisplayName
			if name == "" {
				name = fmt.Sprintf("%d", g.TelegramID)
			}
			mentions = append(mentions, chat.MentionUser(g.TelegramID, name))
		}
		b.WriteString(strings.Join(mentions, " "))
		b.WriteString("\n")
	}

	signUp := chatRef(s.PublicChatTitle, s.PublicChatLink, "the sign-up chat")
	fmt.Fprintf(&b, "\n<b>Sign up for today's raids:</b> %s\n\n", signUp)
	fmt.Fprintf(&b, "The <code>%s</code> role is required.\n    - Read the pinned messages to learn how to get it\n\n", html.EscapeString(string(s.Role)))
	fmt.Fprintf(&b, "Don't send unnecessary messages in %s\n\n", signUp)
	b.WriteString("Don't sign up more than once\n\n")
	b.WriteString("Be online in game on world 75 by 20:50 sharp.\n- Late members risk removal from the team")

	if s.ClanName != "" {
		banner := fmt.Sprintf(clanBannerURL, url.PathEscape(s.ClanName))
		fmt.Fprintf(&b, "\n\n<a href=\"%s\">%s</a>", html.EscapeString(banner), html.EscapeString(s.ClanName))
	}
	return b.String()
}

func rosterDisplayText(r *raid.Roster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Raids team</b> - %d/%d", r.Len(), r.Capacity())
	for i, m := range r.Entries() {
		fmt.Fprintf(&b, "\n%s\n%d- %s", separator, i+1, m.Mention())
	}
	return b.String()
}

func inviteText(s RaidSettings) string {
	return fmt.Sprintf("<b>Sign up for Raids (%d people)</b>\n%s\nTeam: %s\nRequirement: <code>%s</code> role\n\n"+
		"Only sign up if you will be <b>online</b> in game by 20:50 sharp <b>on world 75.</b>\n\n"+
		"<code>in</code>: join the team\n"+
		"<code>out</code>: leave the team",
		s.Capacity, separator, chatRef(s.RaidsChatTitle, s.RaidsChatLink, "the raids chat"), html.EscapeString(string(s.Role)))
}

func fullReply(m chat.Member, r *raid.Roster) string {
	return fmt.Sprintf("%s, the raids team is already full! (%d/%d)\n(<i>in</i>)", m.Mention(), r.Len(), r.Capacity())
}

func alreadyInReply(m chat.Member) string {
	return fmt.Sprintf("Hey %s, you are already in the team!\n(<i>in</i>)", m.Mention())
}

func joinedReply(m chat.Member, r *raid.Roster) string {
	return fmt.Sprintf("%s was added to the raids team. (%d/%d)\n(<i>in</i>)", m.Mention(), r.Len(), r.Capacity())
}

func notEligibleReply(m chat.Member) string {
	return fmt.Sprintf("%s, you can't join raids yet. Apply now with /raids!\n(<i>in</i>)", m.Mention())
}

func verifyFailedReply(m chat.Member) string {
	return fmt.Sprintf("%s, I couldn't check your role right now. Try again in a moment.\n(<i>in</i>)", m.Mention())
}

func leftReply(m chat.Member, r *raid.Roster) string {
	return fmt.Sprintf("%s was removed from the raids team. (%d/%d)\n(<i>out</i>)", m.Mention(), r.Len(), r.Capacity())
}

func notInReply(m chat.Member) string {
	return fmt.Sprintf("Hey %s, you weren't in the team!\n(<i>out</i>)", m.Mention())
}
