package app

import (
	"context"
	"fmt"
	"time"

	"deptrecords/internal/util"
	"deptrecords/pkg/events"
	"deptrecords/pkg/storage"
	"deptrecords/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	SessionTTL    time.Duration

	Store    store.Store
	Sessions store.SessionStore
	Events   events.Publisher
	Objects  storage.ObjectStore
}

// App wires storage, sessions, events, and attachments behind the record
// operations. All operations are request-scoped; the only cross-request
// coordination is the optimistic version check on enrollment updates.
type App struct {
	store    store.Store
	sessions store.SessionStore
	events   events.Publisher
	objects  storage.ObjectStore
}

// New constructs the application. Store and session implementations can
// be injected for tests; otherwise Postgres and JWT+Redis are used.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var revoker store.TokenRevoker
		if cfg.RedisAddr != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		}
		var err error
		sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker, store.JWTOptions{
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		})
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
	}

	return &App{
		store:    dataStore,
		sessions: sessionStore,
		events:   cfg.Events,
		objects:  cfg.Objects,
	}, nil
}

// publish emits an entity-change event. Delivery is best-effort; failures
// are logged and never propagated to the caller.
func (a *App) publish(ctx context.Context, entity string, action events.Action, id string) {
	if a.events == nil {
		return
	}
	event := events.Event{
		Entity: entity,
		Action: action,
		ID:     id,
		At:     time.Now().UTC(),
	}
	if err := a.events.Publish(ctx, event); err != nil {
		util.LoggerFromContext(ctx).Warn("publish event failed",
			"entity", entity, "action", string(action), "id", id, "err", err)
	}
}
