package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// DevSecretKey signs tokens when JWT_SECRET_KEY is unset. Only acceptable
// with the memory backend.
const DevSecretKey = "dev-secret-change-me"

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type        string
	RedisURL    string
	MongoURL    string
	DBName      string
	PostgresDSN string
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	SecretKey       string
	TokenExpiration time.Duration
	BcryptCost      int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level slog.Level
}

// Config holds all configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Log     LogConfig

	// UsingDevSecret is set when no JWT_SECRET_KEY was provided
	UsingDevSecret bool
}

// Load reads an optional .env file and then the environment
func Load(files ...string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load(files...)
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from a variable lookup function
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}

	cfg := &Config{
		Server: ServerConfig{
			Host:        e.str("HOST", ""),
			Port:        e.int("PORT", 8000),
			CORSOrigins: e.list("CORS_ORIGINS", []string{"*"}),
		},
		Storage: StorageConfig{
			Type:        strings.ToLower(e.str("STORAGE_TYPE", StorageMemory)),
			RedisURL:    e.str("REDIS_URL", ""),
			MongoURL:    e.str("MONGO_URL", "mongodb://localhost:27017"),
			DBName:      e.str("DB_NAME", "athletearena"),
			PostgresDSN: e.str("POSTGRES_DSN", ""),
		},
		Auth: AuthConfig{
			SecretKey:       e.str("JWT_SECRET_KEY", ""),
			TokenExpiration: e.duration("JWT_EXPIRATION", 24*time.Hour),
			BcryptCost:      e.int("BCRYPT_COST", bcrypt.DefaultCost),
		},
		Log: LogConfig{
			Level: e.level("LOG_LEVEL", slog.LevelInfo),
		},
	}

	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = DevSecretKey
		cfg.UsingDevSecret = true
	}

	if len(e.errs) > 0 {
		return nil, errors.Join(e.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	case StorageMongo:
		if c.Storage.MongoURL == "" {
			errs = append(errs, errors.New("MONGO_URL required when STORAGE_TYPE=mongo"))
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN required when STORAGE_TYPE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis, mongo or postgres", c.Storage.Type))
	}

	if c.UsingDevSecret && c.Storage.Type != StorageMemory {
		errs = append(errs, errors.New("JWT_SECRET_KEY required for persistent storage"))
	}
	if c.Auth.TokenExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	return errors.Join(errs...)
}

// env collects parse errors while reading variables
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, fallback string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func (e *env) int(key string, fallback int) int {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return value
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return value
}

func (e *env) list(key string, fallback []string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

func (e *env) level(key string, fallback slog.Level) slog.Level {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return level
}
