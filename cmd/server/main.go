package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/athletearena/internal/api"
	"github.com/mcoot/athletearena/internal/config"
	"github.com/mcoot/athletearena/internal/factory"
	"github.com/mcoot/athletearena/internal/services/auth"
	mongostorage "github.com/mcoot/athletearena/internal/storage/mongo"
	pgstorage "github.com/mcoot/athletearena/internal/storage/postgres"
	redisstorage "github.com/mcoot/athletearena/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	if cfg.UsingDevSecret {
		logger.Warn("JWT_SECRET_KEY not set, signing tokens with the development key")
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	server, err := api.NewServer(app.Router(cfg.Server.CORSOrigins), serverConfig, logger)
	if err != nil {
		logger.Error("failed to bind server", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
	)

	// Run blocks until a shutdown signal cancels ctx
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// factoryConfig maps the loaded configuration onto the factory's options
func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage.Type,
		AuthConfig: auth.Config{
			SecretKey:       cfg.Auth.SecretKey,
			TokenExpiration: cfg.Auth.TokenExpiration,
			BcryptCost:      cfg.Auth.BcryptCost,
		},
	}

	switch cfg.Storage.Type {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		fc.RedisConfig = &redisCfg
	case factory.StorageTypeMongo:
		mongoCfg := mongostorage.DefaultConfig()
		mongoCfg.URL = cfg.Storage.MongoURL
		mongoCfg.Database = cfg.Storage.DBName
		fc.MongoConfig = &mongoCfg
	case factory.StorageTypePostgres:
		pgCfg := pgstorage.DefaultConfig()
		pgCfg.DSN = cfg.Storage.PostgresDSN
		fc.PostgresConfig = &pgCfg
	}

	return fc
}
