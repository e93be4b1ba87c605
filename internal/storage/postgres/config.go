package postgres

import "time"

// Config holds PostgreSQL connection settings
type Config struct {
	// DSN is the connection string (e.g., host=localhost user=arena dbname=arena sslmode=disable)
	DSN string

	// Pool settings
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// SlowQueryThreshold is the duration above which queries are logged as slow
	SlowQueryThreshold time.Duration
}

// DefaultConfig returns sensible defaults for PostgreSQL configuration
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:       10,
		MaxOpenConns:       50,
		ConnMaxLifetime:    time.Hour,
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}
