package catalog

import (
	"context"
	"strings"

	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/cache"
	"ai-character-chat/widget/pkg/logger"
)

// Lister is the remote surface the catalog needs.
type Lister interface {
	ListCharacters(ctx context.Context, limit int, filterTags []string, prefetch bool) ([]models.Character, error)
}

// Service fetches the character catalog with a TTL cache in front, so the UI
// can re-request the list on every filter change without hitting the remote
// service each time.
type Service struct {
	api   Lister
	cache *cache.Cache
	log   *logger.Logger
	limit int
}

// NewService creates a catalog service. cache may be nil to disable caching.
func NewService(api Lister, c *cache.Cache, log *logger.Logger, limit int) *Service {
	return &Service{
		api:   api,
		cache: c,
		log:   log.WithComponent("catalog"),
		limit: limit,
	}
}

// Characters returns the catalog restricted server-side to filterTags.
func (s *Service) Characters(ctx context.Context, filterTags []string) ([]models.Character, error) {
	key := "characters:" + strings.Join(filterTags, ",")

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]models.Character), nil
		}
	}

	chars, err := s.api.ListCharacters(ctx, s.limit, filterTags, false)
	if err != nil {
		return nil, err
	}
	s.log.Debug("catalog fetched", "count", len(chars))

	if s.cache != nil {
		s.cache.Set(key, chars)
	}
	return chars, nil
}
