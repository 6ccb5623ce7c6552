package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/internal/api"
	"github.com/netplus/netplus-client-go/internal/config"
	"github.com/netplus/netplus-client-go/internal/credstore"
	"github.com/netplus/netplus-client-go/internal/service"
	"github.com/netplus/netplus-client-go/internal/session"
)

// Container bundles the assembled client layer: credential store, request
// pipeline, session manager and the domain adapters built on top of them.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    credstore.Store
	API      *api.Client
	Sessions *session.Manager
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Insight  *service.InsightService
	Chat     *service.ChatService

	closers []func()
}

// Build assembles the client layer. Heavy initialization (store connection,
// initial session hydration) happens here so callers receive a ready
// container or an error, never a half-wired one.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	var store credstore.Store
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		store = credstore.NewMemoryStore()
	default:
		store, err = credstore.NewRedisStore(credstore.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
	}
	closers = append(closers, func() {
		_ = store.Close()
	})

	apiClient := api.NewClient(cfg.API.BaseURL, store, logger)
	auth := service.NewAuthService(apiClient, logger)

	sessions := session.NewManager(store, auth, logger)
	if err = sessions.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to hydrate session: %w", err)
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		API:      apiClient,
		Sessions: sessions,
		Auth:     auth,
		Catalog:  service.NewCatalogService(apiClient, logger),
		Insight:  service.NewInsightService(apiClient, logger),
		Chat:     service.NewChatService(apiClient, logger),
		closers:  closers,
	}, nil
}

// Close releases container resources in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
