package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/session"
)

// Update is the single cooperative scheduler for the shell: every intent and
// every stream delta passes through here, one message at a time.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - 7
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.input.Width = msg.Width - 4
		m.query.Width = msg.Width - 4
		return m, nil

	case spinner.TickMsg:
		if m.typing || m.loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case catalogMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.showBanner(errors.UserMessage(msg.err))
		}
		m.characters = msg.characters
		m.allTags = collectTags(msg.characters)
		if m.cursor >= len(m.characters) {
			m.cursor = 0
		}
		return m, nil

	case identityMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.showBanner(errors.UserMessage(msg.err))
		}
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Placeholder = "say something"
		m.query.Focus()
		return m, m.bindUser(msg.uid)

	case userBoundMsg:
		if msg.err != nil {
			return m, m.showBanner(errors.UserMessage(msg.err))
		}
		return m, nil

	case chatBoundMsg:
		m.loading = false
		if msg.err != nil {
			// Selection failure leaves the previous screen in place.
			return m, m.showBanner(errors.UserMessage(msg.err))
		}
		m.mode = modeChat
		m.query.Blur()
		m.input.Reset()
		m.input.Focus()
		m.refreshTranscript()
		return m, nil

	case streamDeltaMsg:
		if msg.first {
			m.typing = false
		}
		m.refreshTranscript()
		return m, listenStream(m.streamCh)

	case streamDoneMsg:
		m.typing = false
		m.refreshTranscript()
		if msg.err != nil {
			return m, m.showBanner(errors.UserMessage(msg.err))
		}
		return m, nil

	case bannerExpireMsg:
		if msg.seq == m.bannerSeq {
			m.banner = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeOnboardName, modeOnboardYear:
		return m.handleOnboardKey(msg)
	case modeBrowse:
		return m.handleBrowseKey(msg)
	case modeChats:
		return m.handleChatsKey(msg)
	case modeChat:
		return m.handleChatKey(msg)
	case modeSwitchUser:
		return m.handleSwitchKey(msg)
	}
	return m, nil
}

func (m Model) handleOnboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		value := strings.TrimSpace(m.input.Value())

		if m.mode == modeOnboardName {
			if value == "" {
				return m, m.showBanner("display name must not be empty")
			}
			m.displayName = value
			m.mode = modeOnboardYear
			m.input.Reset()
			m.input.Placeholder = "birth year (e.g. 1990)"
			return m, nil
		}

		year, err := strconv.Atoi(value)
		if err != nil || year < 1900 || year > time.Now().Year() {
			return m, m.showBanner("enter a valid birth year")
		}
		m.loading = true
		return m, tea.Batch(m.onboard(m.displayName, year), m.spin.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	filtered := m.filtered()

	switch key {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(filtered)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.cursor < len(filtered) {
			m.loading = true
			return m, tea.Batch(m.selectCharacter(filtered[m.cursor]), m.spin.Tick)
		}
		return m, nil
	case "tab":
		m.mode = modeChats
		m.chatCursor = 0
		return m, nil
	case "ctrl+u":
		m.mode = modeSwitchUser
		m.query.Blur()
		m.input.Reset()
		m.input.Placeholder = "user id"
		m.input.Focus()
		return m, nil
	}

	// alt+N toggles the Nth filter tag.
	if strings.HasPrefix(key, "alt+") {
		if n, err := strconv.Atoi(strings.TrimPrefix(key, "alt+")); err == nil && n >= 1 && n <= len(m.allTags) {
			tag := m.allTags[n-1]
			m.activeTags[tag] = !m.activeTags[tag]
			m.cursor = 0
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) handleChatsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	summaries := m.deps.Session.Summaries()

	switch msg.String() {
	case "up":
		if m.chatCursor > 0 {
			m.chatCursor--
		}
	case "down":
		if m.chatCursor < len(summaries)-1 {
			m.chatCursor++
		}
	case "enter":
		if m.chatCursor < len(summaries) {
			m.loading = true
			return m, tea.Batch(m.openExisting(summaries[m.chatCursor]), m.spin.Tick)
		}
	case "tab", "esc":
		m.mode = modeBrowse
		m.query.Focus()
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			// Blank sends are a no-op; nothing is appended or cleared.
			return m, nil
		}
		if m.deps.Session.State() == session.StateStreaming {
			return m, m.showBanner("a reply is already in progress")
		}
		m.input.Reset()
		m.typing = true
		return m, tea.Batch(m.send(text), m.spin.Tick)
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		m.query.Focus()
		return m, nil
	case "ctrl+u":
		m.mode = modeSwitchUser
		m.input.Reset()
		m.input.Placeholder = "user id"
		return m, nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSwitchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		uid := strings.TrimSpace(m.input.Value())
		if uid == "" {
			return m, m.showBanner("user id must not be empty")
		}
		if err := m.deps.Store.SetUserID(uid); err != nil {
			return m, m.showBanner(errors.UserMessage(err))
		}
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Placeholder = "say something"
		m.query.Focus()
		return m, m.bindUser(uid)
	case "esc":
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Placeholder = "say something"
		m.query.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refreshTranscript re-renders the session log into the viewport and keeps
// the latest message in view.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
