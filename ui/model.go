// Package ui is the terminal shell around the widget core. It renders
// session state and turns key presses into component intents; all chat
// semantics live below it.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ai-character-chat/widget/catalog"
	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/di"
)

// mode is which screen the shell is showing.
type mode int

const (
	modeOnboardName mode = iota
	modeOnboardYear
	modeBrowse
	modeChats
	modeChat
	modeSwitchUser
)

// Model is the Bubble Tea model for the whole widget.
type Model struct {
	deps *di.Container

	mode   mode
	width  int
	height int

	// Character browsing state.
	characters []models.Character
	allTags    []string
	activeTags map[string]bool
	query      textinput.Model
	cursor     int

	// Chat list state.
	chatCursor int

	// Chat view state.
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	typing   bool

	// Streaming bridge: deltas cross from the send goroutine into the
	// update loop through this channel.
	streamCh chan tea.Msg

	// Transient banner.
	banner    string
	bannerSeq int

	// Onboarding scratch state.
	displayName string

	loading bool
}

// New creates the shell over an assembled container.
func New(deps *di.Container) Model {
	query := textinput.New()
	query.Placeholder = "filter characters"
	query.CharLimit = 80

	input := textinput.New()
	input.Placeholder = "say something"
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		deps:       deps,
		activeTags: make(map[string]bool),
		query:      query,
		input:      input,
		spin:       sp,
		viewport:   viewport.New(80, 20),
		streamCh:   make(chan tea.Msg, 16),
		loading:    true,
	}

	if deps.Store.UserID() == "" {
		m.mode = modeOnboardName
		m.input.Placeholder = "what should we call you?"
		m.input.Focus()
	} else {
		m.mode = modeBrowse
		m.query.Focus()
	}
	return m
}

// Init kicks off identity resume and the initial catalog fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, m.loadCatalog()}
	if uid := m.deps.Store.UserID(); uid != "" {
		cmds = append(cmds, m.bindUser(uid))
	}
	return tea.Batch(cmds...)
}

// filtered applies the catalog filter to the current query and tag set.
func (m Model) filtered() []models.Character {
	return catalog.Filter(m.characters, m.query.Value(), m.selectedTags())
}

func (m Model) selectedTags() []string {
	var tags []string
	for _, t := range m.allTags {
		if m.activeTags[t] {
			tags = append(tags, t)
		}
	}
	return tags
}
