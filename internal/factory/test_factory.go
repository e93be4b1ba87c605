package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/athletearena/internal/dependencies/mocks"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/services/auth"
	"github.com/mcoot/athletearena/internal/storage/memory"
	"github.com/mcoot/athletearena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockIDs   *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIDs := mocks.NewMockIDs()

	authCfg := auth.Config{
		SecretKey:       "test-secret",
		TokenExpiration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}

	app := newWithDependencies(store, mockClock, mockIDs, metrics.New(), authCfg, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockIDs:   mockIDs,
	}
}
