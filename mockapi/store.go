// Package mockapi implements an in-memory development backend exposing the
// chat service API the widget talks to, including the reply stream. It
// exists so the widget can be exercised end to end without the production
// service.
package mockapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"ai-character-chat/widget/internal/models"

	"github.com/google/uuid"
)

type user struct {
	UID         string
	DeviceID    string
	DisplayName string
	BirthYear   int
	CreatedAt   time.Time
}

type conversation struct {
	ID          string
	CharacterID string
	UID         string
	Messages    []models.Message
	UpdatedAt   time.Time
}

// Store holds all mock backend state in memory.
type Store struct {
	mu         sync.Mutex
	characters []models.Character
	users      map[string]*user
	convs      map[string]*conversation
}

// NewStore creates a store seeded with the given characters.
func NewStore(characters []models.Character) *Store {
	return &Store{
		characters: characters,
		users:      make(map[string]*user),
		convs:      make(map[string]*conversation),
	}
}

func convKey(characterID, uid string) string {
	return characterID + "|" + uid
}

// CreateUser mints a new anonymous user id.
func (s *Store) CreateUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := "user_" + uuid.New().String()
	s.users[uid] = &user{UID: uid, CreatedAt: time.Now()}
	return uid
}

// Onboard records profile details for an existing user.
func (s *Store) Onboard(uid, deviceID, displayName string, birthYear int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[uid]
	if !ok {
		// Accept ids minted by other backend instances; the widget may
		// resume a cached identity against a fresh mock.
		u = &user{UID: uid, CreatedAt: time.Now()}
		s.users[uid] = u
	}
	u.DeviceID = deviceID
	u.DisplayName = displayName
	u.BirthYear = birthYear
	return nil
}

// Characters returns up to limit catalog entries carrying all of tags.
func (s *Store) Characters(limit int, tags []string) []models.Character {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Character
	for _, ch := range s.characters {
		if !hasAllFilterTags(ch, tags) {
			continue
		}
		out = append(out, ch)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func hasAllFilterTags(ch models.Character, tags []string) bool {
	for _, tag := range tags {
		if !ch.HasFilterTag(tag) {
			return false
		}
	}
	return true
}

// CharacterByID looks up one catalog entry.
func (s *Store) CharacterByID(id string) (models.Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.characters {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.Character{}, false
}

// OpenConversation returns the conversation for (characterID, uid), creating
// it if none exists yet.
func (s *Store) OpenConversation(characterID, uid string) (handle models.ChatHandle, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := convKey(characterID, uid)
	conv, ok := s.convs[key]
	if !ok {
		conv = &conversation{
			ID:          "conv_" + uuid.New().String(),
			CharacterID: characterID,
			UID:         uid,
			UpdatedAt:   time.Now(),
		}
		s.convs[key] = conv
	}
	return models.ChatHandle{
		ConversationID:    conv.ID,
		IsNewConversation: !ok,
		MessageCount:      len(conv.Messages),
	}, nil
}

// AppendMessage appends to the conversation log for (characterID, uid).
func (s *Store) AppendMessage(characterID, uid string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := convKey(characterID, uid)
	conv, ok := s.convs[key]
	if !ok {
		conv = &conversation{
			ID:          "conv_" + uuid.New().String(),
			CharacterID: characterID,
			UID:         uid,
		}
		s.convs[key] = conv
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()
}

// History returns up to limit messages for the conversation, oldest first.
func (s *Store) History(characterID, uid string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convKey(characterID, uid)]
	if !ok {
		return nil, fmt.Errorf("conversation not found")
	}

	msgs := conv.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Summaries lists the user's conversations, most recently active first.
func (s *Store) Summaries(uid string) ([]models.ChatSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var convs []*conversation
	for _, conv := range s.convs {
		if conv.UID == uid {
			convs = append(convs, conv)
		}
	}
	if len(convs) == 0 {
		return nil, fmt.Errorf("conversations not found")
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	out := make([]models.ChatSummary, 0, len(convs))
	for _, conv := range convs {
		sum := models.ChatSummary{
			CharacterID:    conv.CharacterID,
			ConversationID: conv.ID,
		}
		for _, ch := range s.characters {
			if ch.ID == conv.CharacterID {
				sum.CharacterName = ch.Name
				sum.AvatarURL = ch.AvatarURL
				break
			}
		}
		if n := len(conv.Messages); n > 0 {
			sum.LastMessage = conv.Messages[n-1].Content
			sum.LastMessageTime = conv.Messages[n-1].Timestamp
		}
		out = append(out, sum)
	}
	return out, nil
}
