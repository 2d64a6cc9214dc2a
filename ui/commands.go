package ui

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ai-character-chat/widget/internal/models"
)

// Messages crossing from commands back into the update loop.

type catalogMsg struct {
	characters []models.Character
	err        error
}

type identityMsg struct {
	uid string
	err error
}

type userBoundMsg struct{ err error }

type chatBoundMsg struct{ err error }

type streamDeltaMsg struct {
	text  string
	first bool
}

type streamDoneMsg struct{ err error }

type bannerExpireMsg struct{ seq int }

func (m Model) loadCatalog() tea.Cmd {
	svc := m.deps.Catalog
	return func() tea.Msg {
		chars, err := svc.Characters(context.Background(), nil)
		return catalogMsg{characters: chars, err: err}
	}
}

// onboard creates an anonymous user, registers the profile and persists the
// new identity.
func (m Model) onboard(displayName string, birthYear int) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := context.Background()
		uid, err := deps.Client.CreateAnonymousUser(ctx)
		if err != nil {
			return identityMsg{err: err}
		}
		if err := deps.Client.OnboardUser(ctx, uid, deps.Store.DeviceID(), displayName, birthYear); err != nil {
			return identityMsg{err: err}
		}
		if err := deps.Store.SetUserID(uid); err != nil {
			return identityMsg{err: err}
		}
		return identityMsg{uid: uid}
	}
}

// bindUser makes uid the session's active user and loads its summaries.
func (m Model) bindUser(uid string) tea.Cmd {
	sess := m.deps.Session
	return func() tea.Msg {
		return userBoundMsg{err: sess.SetUser(context.Background(), uid)}
	}
}

func (m Model) selectCharacter(ch models.Character) tea.Cmd {
	sess := m.deps.Session
	return func() tea.Msg {
		return chatBoundMsg{err: sess.SelectCharacter(context.Background(), ch)}
	}
}

func (m Model) openExisting(sum models.ChatSummary) tea.Cmd {
	sess := m.deps.Session
	return func() tea.Msg {
		return chatBoundMsg{err: sess.OpenExisting(context.Background(), sum)}
	}
}

// send runs the streaming send in the background, forwarding each revision
// of the reply into the update loop. The paired listenStream command drains
// the channel one message per Update.
func (m Model) send(text string) tea.Cmd {
	sess := m.deps.Session
	ch := m.streamCh
	run := func() tea.Msg {
		err := sess.Send(context.Background(), text, func(text string, first bool) {
			ch <- streamDeltaMsg{text: text, first: first}
		})
		ch <- streamDoneMsg{err: err}
		return nil
	}
	return tea.Batch(run, listenStream(ch))
}

func listenStream(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// showBanner displays text and schedules its expiry. Each banner bumps the
// sequence so a stale expiry cannot clear a newer banner.
func (m *Model) showBanner(text string) tea.Cmd {
	m.banner = text
	m.bannerSeq++
	seq := m.bannerSeq
	ttl := m.deps.Config.Chat.BannerTTL
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return bannerExpireMsg{seq: seq}
	})
}

// collectTags derives the toggleable tag set from the catalog.
func collectTags(characters []models.Character) []string {
	seen := make(map[string]bool)
	for _, ch := range characters {
		for _, tag := range ch.FilterTags {
			seen[tag] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
