// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/internal/bootstrap"
	"github.com/AccelByte/extend-retention-engine/internal/config"
	"github.com/AccelByte/extend-retention-engine/internal/server"
	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/retention"
	"github.com/AccelByte/extend-retention-engine/pkg/scheduler"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	store             *store.Postgres
	redisClient       *redis.Client
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	scheduler         *scheduler.Scheduler
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// Components are initialized in dependency order:
// 1. Postgres (durable store)
// 2. Redis (real-time reward cache)
// 3. Campaign catalog (load, seed when empty)
// 4. Domain components (scorer, dispatcher, sweeps)
// 5. Servers (HTTP API, metrics)
// 6. Telemetry (OpenTelemetry tracing)
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	pg, err := store.OpenPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init Postgres: %w", err)
	}
	app.store = pg

	redisClient, err := cache.InitRedisClient(ctx,
		cfg.RedisHost+":"+cfg.RedisPort, cfg.RedisPassword, cfg.RedisMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	app.redisClient = redisClient
	rewards := cache.NewRewardCache(redisClient)

	catalog, err := bootstrap.InitCatalog(ctx, pg, cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init campaign catalog: %w", err)
	}

	app.scheduler, err = bootstrap.InitSweeps(ctx, cfg, pg, rewards, catalog, bootstrap.DefaultChannels())
	if err != nil {
		return nil, fmt.Errorf("failed to init sweeps: %w", err)
	}

	svc := retention.NewService(pg, rewards, catalog, campaign.NewSelector(catalog))

	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, svc)
	if err := app.httpServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup HTTP server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}
