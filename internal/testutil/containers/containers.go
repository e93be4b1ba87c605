// Package containers provides database endpoints for backend tests. An
// explicit TEST_* environment variable wins; otherwise a disposable
// container is started and removed when the test ends. Tests are skipped
// when neither is available.
package containers

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage = "postgres:16-alpine"
	mongoImage    = "mongo:7"
)

// PostgresDSN returns a DSN for an PostgreSQL database the caller may truncate
func PostgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("arena"),
		tcpostgres.WithUsername("arena"),
		tcpostgres.WithPassword("arena"),
		tcpostgres.BasicWaitStrategies(),
	)
	cleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// MongoURL returns a connection URL for a MongoDB server
func MongoURL(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("TEST_MONGO_URL"); url != "" {
		return url
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcmongo.Run(ctx, mongoImage)
	cleanupContainer(t, ctr)
	require.NoError(t, err)

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	return url
}

// cleanupContainer terminates ctr when the test ends (testcontainers v0.33
// has no CleanupContainer helper).
func cleanupContainer(t *testing.T, ctr testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		if ctr == nil || reflect.ValueOf(ctr).IsNil() {
			return
		}
		require.NoError(t, ctr.Terminate(context.Background()))
	})
}
