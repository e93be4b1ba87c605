package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/athletearena/internal/api"
	"github.com/mcoot/athletearena/internal/dependencies/clock"
	"github.com/mcoot/athletearena/internal/dependencies/ids"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/services/auth"
	"github.com/mcoot/athletearena/internal/services/registration"
	"github.com/mcoot/athletearena/internal/services/tournament"
	"github.com/mcoot/athletearena/internal/storage"
	"github.com/mcoot/athletearena/internal/storage/memory"
	mongostorage "github.com/mcoot/athletearena/internal/storage/mongo"
	pgstorage "github.com/mcoot/athletearena/internal/storage/postgres"
	redisstorage "github.com/mcoot/athletearena/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypeMongo    = "mongo"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock   clock.Clock
	IDs     ids.Generator
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Services
	AuthService        *auth.Service
	TournamentService  *tournament.Service
	RegistrationEngine *registration.Engine
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// Zero fields fall back to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MongoConfig holds MongoDB connection settings (required if StorageType is "mongo")
	MongoConfig *mongostorage.Config
	// PostgresConfig holds PostgreSQL connection settings (required if StorageType is "postgres")
	PostgresConfig *pgstorage.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), ids.New(), metrics.New(), cfg.AuthConfig, logger), nil
}

func newStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeMongo:
		if cfg.MongoConfig == nil {
			return nil, errors.New("MongoConfig required when StorageType is mongo")
		}
		return mongostorage.New(ctx, *cfg.MongoConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		return pgstorage.New(*cfg.PostgresConfig, logger)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, mongo or postgres", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	gen ids.Generator,
	m *metrics.Metrics,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	return &App{
		Storage:            store,
		Clock:              clk,
		IDs:                gen,
		Metrics:            m,
		Logger:             logger,
		AuthService:        auth.New(store, clk, gen, m, logger, authCfg),
		TournamentService:  tournament.NewService(store, clk, gen, m, logger),
		RegistrationEngine: registration.NewEngine(store, clk, gen, m, logger),
	}
}

// Router builds the HTTP handler serving the API
func (a *App) Router(corsOrigins []string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:             a.Logger,
		Metrics:            a.Metrics,
		AuthService:        a.AuthService,
		TournamentService:  a.TournamentService,
		RegistrationEngine: a.RegistrationEngine,
		CORSOrigins:        corsOrigins,
	})
}

// Close releases the storage backend's connections
func (a *App) Close() error {
	return a.Storage.Close()
}
