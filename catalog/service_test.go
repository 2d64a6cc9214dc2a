package catalog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/cache"
	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/pkg/logger"
)

type fakeLister struct {
	characters []models.Character
	err        error
	calls      int
	lastTags   []string
	lastLimit  int
}

func (f *fakeLister) ListCharacters(ctx context.Context, limit int, filterTags []string, prefetch bool) ([]models.Character, error) {
	f.calls++
	f.lastLimit = limit
	f.lastTags = filterTags
	return f.characters, f.err
}

func newTestService(api Lister, c *cache.Cache) *Service {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	return NewService(api, c, log, 100)
}

func TestCharactersFetches(t *testing.T) {
	api := &fakeLister{characters: testCatalog()}
	svc := newTestService(api, nil)

	chars, err := svc.Characters(context.Background(), []string{"fantasy"})
	require.NoError(t, err)
	assert.Len(t, chars, 3)
	assert.Equal(t, 100, api.lastLimit)
	assert.Equal(t, []string{"fantasy"}, api.lastTags)
}

func TestCharactersCachesPerTagSet(t *testing.T) {
	api := &fakeLister{characters: testCatalog()}
	svc := newTestService(api, cache.New(cache.Options{TTL: time.Minute}))

	_, err := svc.Characters(context.Background(), nil)
	require.NoError(t, err)
	_, err = svc.Characters(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls, "second identical request must hit the cache")

	_, err = svc.Characters(context.Background(), []string{"noir"})
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls, "a different tag set is a different cache key")
}

func TestCharactersErrorNotCached(t *testing.T) {
	api := &fakeLister{err: errors.NewRemoteError("service unavailable")}
	svc := newTestService(api, cache.New(cache.Options{TTL: time.Minute}))

	_, err := svc.Characters(context.Background(), nil)
	require.Error(t, err)

	api.err = nil
	api.characters = testCatalog()
	chars, err := svc.Characters(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, chars, 3)
	assert.Equal(t, 2, api.calls)
}
