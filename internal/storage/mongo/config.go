package mongo

import "time"

// Config holds MongoDB connection settings
type Config struct {
	// URL is the connection string (e.g., mongodb://localhost:27017)
	URL string

	// Database is the database holding the users, tournaments and registrations collections
	Database string

	// ConnectTimeout bounds the initial connect and ping
	ConnectTimeout time.Duration

	MaxPoolSize uint64
}

// DefaultConfig returns sensible defaults for MongoDB configuration
func DefaultConfig() Config {
	return Config{
		URL:            "mongodb://localhost:27017",
		Database:       "athletearena",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    50,
	}
}
