package ui

import (
	"fmt"
	"strings"

	"ai-character-chat/widget/internal/models"
)

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder

	switch m.mode {
	case modeOnboardName:
		b.WriteString(titleStyle.Render("Welcome"))
		b.WriteString("\n")
		b.WriteString("Pick a display name to get started.\n\n")
		b.WriteString(m.input.View())
	case modeOnboardYear:
		b.WriteString(titleStyle.Render("Welcome, " + m.displayName))
		b.WriteString("\n")
		b.WriteString("And your birth year?\n\n")
		b.WriteString(m.input.View())
	case modeBrowse:
		b.WriteString(m.viewBrowse())
	case modeChats:
		b.WriteString(m.viewChats())
	case modeChat:
		b.WriteString(m.viewChat())
	case modeSwitchUser:
		b.WriteString(titleStyle.Render("Switch account"))
		b.WriteString("\n")
		b.WriteString("Enter the user id to switch to.\n\n")
		b.WriteString(m.input.View())
		b.WriteString(helpStyle.Render("\nenter: switch • esc: cancel"))
	}

	if m.loading {
		b.WriteString("\n" + m.spin.View() + statusStyle.Render(" working..."))
	}
	if m.banner != "" {
		b.WriteString("\n" + bannerStyle.Render(m.banner))
	}
	return b.String()
}

func (m Model) viewBrowse() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Characters"))
	b.WriteString("\n")
	b.WriteString(m.query.View())
	b.WriteString("\n\n")

	if len(m.allTags) > 0 {
		parts := make([]string, 0, len(m.allTags))
		for i, tag := range m.allTags {
			label := fmt.Sprintf("[%d] %s", i+1, tag)
			if m.activeTags[tag] {
				parts = append(parts, tagOnStyle.Render(label))
			} else {
				parts = append(parts, tagOffStyle.Render(label))
			}
		}
		b.WriteString(strings.Join(parts, "  "))
		b.WriteString("\n\n")
	}

	filtered := m.filtered()
	if len(filtered) == 0 {
		b.WriteString(statusStyle.Render("no characters match"))
	}
	for i, ch := range filtered {
		line := fmt.Sprintf("%s — %s", ch.Name, ch.StatusText)
		if len(ch.PersonalityTags) > 0 {
			line += statusStyle.Render("  (" + strings.Join(ch.PersonalityTags, ", ") + ")")
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter: chat • tab: your chats • alt+N: toggle tag • ctrl+u: switch account • ctrl+c: quit"))
	return b.String()
}

func (m Model) viewChats() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your chats"))
	b.WriteString("\n")

	summaries := m.deps.Session.Summaries()
	if len(summaries) == 0 {
		b.WriteString(statusStyle.Render("no conversations yet"))
		b.WriteString("\n")
	}
	for i, sum := range summaries {
		line := sum.CharacterName
		if sum.LastMessage != "" {
			preview := sum.LastMessage
			if len(preview) > 50 {
				preview = preview[:50] + "..."
			}
			line += statusStyle.Render(" — " + preview)
		}
		if i == m.chatCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter: resume • tab/esc: back"))
	return b.String()
}

func (m Model) viewChat() string {
	var b strings.Builder

	name := "chat"
	if ch := m.deps.Session.Character(); ch != nil {
		name = ch.Name
		if ch.StatusText != "" {
			name += statusStyle.Render(" — " + ch.StatusText)
		}
	}
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.typing {
		b.WriteString(m.spin.View() + statusStyle.Render(" typing..."))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString(helpStyle.Render("\nenter: send • esc: characters • ctrl+u: switch account"))
	return b.String()
}

// renderTranscript formats the session's message log for the viewport.
func (m Model) renderTranscript() string {
	msgs := m.deps.Session.Messages()
	if len(msgs) == 0 {
		return statusStyle.Render("say hello!")
	}

	var b strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			b.WriteString(userMsgStyle.Render("you: ") + msg.Content)
		case models.RoleAssistant:
			b.WriteString(assistantMsgStyle.Render(msg.Content))
		default:
			b.WriteString(msg.Content)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
