// Package di assembles the widget's components.
package di

import (
	"fmt"

	"ai-character-chat/widget/catalog"
	"ai-character-chat/widget/client"
	"ai-character-chat/widget/identity"
	"ai-character-chat/widget/pkg/cache"
	"ai-character-chat/widget/pkg/config"
	"ai-character-chat/widget/pkg/logger"
	"ai-character-chat/widget/session"
)

// Container holds all the dependencies for the widget binary.
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Store   *identity.Store
	Client  *client.Client
	Catalog *catalog.Service
	Session *session.Session
}

// New creates a container from the given configuration.
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	store, err := identity.Open(cfg.Storage.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}

	api := client.New(cfg.Backend.URL, cfg.Backend.Timeout, log)

	var catalogCache *cache.Cache
	if cfg.Cache.Enabled {
		catalogCache = cache.New(cache.Options{
			TTL:         cfg.Cache.TTL,
			MaxItems:    cfg.Cache.MaxSize,
			PurgeWindow: cfg.Cache.PurgeWindow,
		})
	}

	return &Container{
		Config:  cfg,
		Logger:  log,
		Store:   store,
		Client:  api,
		Catalog: catalog.NewService(api, catalogCache, log, cfg.Chat.CatalogLimit),
		Session: session.New(api, log, session.WithHistoryLimit(cfg.Chat.HistoryLimit)),
	}, nil
}
