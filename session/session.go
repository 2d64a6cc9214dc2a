// Package session holds the conversation state machine: the active
// character, the bound conversation and the ordered message log. All
// mutation happens through its transitions; callers never touch the fields.
package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/pkg/logger"
	"ai-character-chat/widget/stream"

	"github.com/google/uuid"
)

// State is the session's position in its lifecycle.
type State int

const (
	// StateIdle means no character is selected.
	StateIdle State = iota
	// StateLoading means a new-chat or history response is pending.
	StateLoading
	// StateActive means character and conversation are bound.
	StateActive
	// StateStreaming means an assistant reply is in flight.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Backend is the remote surface the session needs.
type Backend interface {
	NewChat(ctx context.Context, characterID, uid string) (*models.ChatHandle, error)
	ChatHistory(ctx context.Context, characterID, uid string, limit int) ([]models.Message, error)
	UserChats(ctx context.Context, uid string) ([]models.ChatSummary, error)
	StreamMessage(ctx context.Context, prompt, characterID, uid string) (io.ReadCloser, error)
}

// Session is the single active conversation. It exclusively owns its message
// log; while a reply streams, only the assembler callback mutates the last
// entry.
type Session struct {
	mu      sync.Mutex
	backend Backend
	log     *logger.Logger

	historyLimit int

	state          State
	userID         string
	character      *models.Character
	conversationID string
	messages       []models.Message
	summaries      []models.ChatSummary
}

// Option tweaks a new session.
type Option func(*Session)

// WithHistoryLimit overrides the history page size (default 50).
func WithHistoryLimit(n int) Option {
	return func(s *Session) { s.historyLimit = n }
}

// New creates an idle session with no user bound.
func New(backend Backend, log *logger.Logger, opts ...Option) *Session {
	s := &Session{
		backend:      backend,
		log:          log.WithComponent("session"),
		historyLimit: 50,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the bound user id, or empty.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Character returns the active character snapshot, or nil.
func (s *Session) Character() *models.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.character
}

// ConversationID returns the bound conversation id, or empty.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a copy of the message log.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Summaries returns a copy of the user's conversation summaries.
func (s *Session) Summaries() []models.ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// SetUser binds a new active user, clears any conversation state back to
// Idle and reloads the user's conversation summaries.
func (s *Session) SetUser(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.NewValidationError("user id must not be empty")
	}

	s.mu.Lock()
	s.userID = uid
	s.character = nil
	s.conversationID = ""
	s.messages = nil
	s.summaries = nil
	s.state = StateIdle
	s.mu.Unlock()

	return s.RefreshSummaries(ctx)
}

// RefreshSummaries reloads the conversation list for the bound user. A user
// with no conversations yet is an empty list, not an error.
func (s *Session) RefreshSummaries(ctx context.Context) error {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()
	if uid == "" {
		return errors.NewValidationError("no active user")
	}

	summaries, err := s.backend.UserChats(ctx, uid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.summaries = summaries
	s.mu.Unlock()
	return nil
}

// SelectCharacter binds the character and its new-or-existing conversation.
// If the conversation already has messages, history is loaded; otherwise the
// log starts empty. On failure the session keeps its previous position and
// the error is returned for the caller to surface.
func (s *Session) SelectCharacter(ctx context.Context, ch models.Character) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return errors.NewValidationError("no active user")
	}
	if s.state == StateStreaming {
		s.mu.Unlock()
		return errors.NewValidationError("a reply is still in progress")
	}
	uid := s.userID
	prev := s.state
	s.state = StateLoading
	s.mu.Unlock()

	handle, err := s.backend.NewChat(ctx, ch.ID, uid)
	if err != nil {
		s.mu.Lock()
		s.state = prev
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	snapshot := ch
	s.character = &snapshot
	s.conversationID = handle.ConversationID
	s.messages = nil
	s.state = StateActive
	s.mu.Unlock()

	if handle.MessageCount > 0 {
		s.loadHistory(ctx)
	}
	return nil
}

// OpenExisting resumes a prior conversation directly from its summary.
// Character identity comes from the summary, not a re-fetch.
func (s *Session) OpenExisting(ctx context.Context, sum models.ChatSummary) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return errors.NewValidationError("no active user")
	}
	if s.state == StateStreaming {
		s.mu.Unlock()
		return errors.NewValidationError("a reply is still in progress")
	}
	s.character = &models.Character{
		ID:        sum.CharacterID,
		Name:      sum.CharacterName,
		AvatarURL: sum.AvatarURL,
	}
	s.conversationID = sum.ConversationID
	s.messages = nil
	s.state = StateActive
	s.mu.Unlock()

	s.loadHistory(ctx)
	return nil
}

// loadHistory replaces the message log with up to historyLimit prior
// messages, oldest first. Absent history is not fatal to continuing a chat,
// so failures are logged and swallowed.
func (s *Session) loadHistory(ctx context.Context) {
	s.mu.Lock()
	if s.character == nil {
		s.mu.Unlock()
		return
	}
	charID := s.character.ID
	uid := s.userID
	s.mu.Unlock()

	msgs, err := s.backend.ChatHistory(ctx, charID, uid, s.historyLimit)
	if err != nil {
		s.log.Warn("history load failed", "character_id", charID, "error", err)
		return
	}

	s.mu.Lock()
	s.messages = msgs
	s.mu.Unlock()
}

// Send streams one user message to the bound character. The user message is
// appended optimistically before the service confirms anything; the summary
// refresh after a clean stream is what reconciles local state with the
// service.
//
// onRevision, when non-nil, observes each accumulated revision of the
// assistant reply outside the session lock; first is true when the reply
// message materializes in the log.
//
// Guards: blank text, an in-flight reply and a missing character or user all
// reject locally without touching the log or the network.
func (s *Session) Send(ctx context.Context, text string, onRevision func(text string, first bool)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.NewValidationError("message must not be empty")
	}

	s.mu.Lock()
	if s.state == StateStreaming {
		s.mu.Unlock()
		return errors.NewValidationError("a reply is already in progress")
	}
	if s.character == nil || s.userID == "" {
		s.mu.Unlock()
		return errors.NewValidationError("no conversation is active")
	}
	uid := s.userID
	charID := s.character.ID
	s.messages = append(s.messages, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	s.state = StateStreaming
	s.mu.Unlock()

	body, err := s.backend.StreamMessage(ctx, text, charID, uid)
	if err != nil {
		s.setState(StateActive)
		return err
	}
	defer body.Close()

	asm := stream.New(s.log)
	replyIdx := -1
	_, streamErr := asm.Run(body, func(text string, first bool) {
		s.mu.Lock()
		if first {
			s.messages = append(s.messages, models.Message{
				ID:        uuid.New().String(),
				Role:      models.RoleAssistant,
				Timestamp: time.Now(),
			})
			replyIdx = len(s.messages) - 1
		}
		if replyIdx >= 0 && replyIdx < len(s.messages) {
			s.messages[replyIdx].Content = text
		}
		s.mu.Unlock()

		if onRevision != nil {
			onRevision(text, first)
		}
	})

	s.setState(StateActive)

	if streamErr != nil {
		// Partial content already written stays in the log; the summary
		// list is deliberately not refreshed on this path.
		return streamErr
	}

	if err := s.RefreshSummaries(ctx); err != nil {
		s.log.Warn("summary refresh after send failed", "error", err)
	}
	return nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
