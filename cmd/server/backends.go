package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/config"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/realtime"
	"github.com/aau-transit/bustrack/internal/redis"
	"github.com/aau-transit/bustrack/internal/schedule"
	"github.com/aau-transit/bustrack/internal/storage"
)

// App holds the backends every route group is built from.
type App struct {
	Config    *config.Config
	Store     db.Store
	Sessions  redis.Store
	Publisher realtime.Publisher
	Storage   storage.Storage
	Catalog   *schedule.Catalog

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// InitApp connects the configured backends. Without DATABASE_URL, REDIS_ADDRESS or
// MQTT_BROKER_URL the in-process fallbacks are used.
func InitApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, Catalog: schedule.Default()}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		app.Store = db.NewMemoryStore()
	} else {
		conn, err := db.Init(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db init: %w", err)
		}
		app.closers = append(app.closers, func() { _ = conn.Close() })
		if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
			app.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		app.Store = db.NewStore(conn)
	}

	if cfg.RedisAddress == "" {
		log.Warn().Msg("REDIS_ADDRESS not set, sessions and live snapshots are kept in memory")
		app.Sessions = redis.NewMemoryStore()
	} else {
		client := redis.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		app.closers = append(app.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		app.Sessions = client
	}

	if cfg.MQTTBrokerURL == "" {
		log.Info().Msg("MQTT_BROKER_URL not set, live location publishing disabled")
		app.Publisher = realtime.NopPublisher{}
	} else {
		pub, err := realtime.Connect(cfg.MQTTBrokerURL, "bustrack-server-"+uuid.NewString()[:8])
		if err != nil {
			// live positions are still cached and served over HTTP
			log.Error().Err(err).Msg("MQTT unavailable, live location publishing disabled")
			app.Publisher = realtime.NopPublisher{}
		} else {
			app.Publisher = pub
		}
	}
	app.closers = append(app.closers, app.Publisher.Close)

	st, err := InitStorage(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Storage = st

	return app, nil
}
