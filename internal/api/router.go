package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/athletearena/internal/api/apierr"
	"github.com/mcoot/athletearena/internal/api/handler"
	"github.com/mcoot/athletearena/internal/api/middleware"
	"github.com/mcoot/athletearena/internal/api/response"
	"github.com/mcoot/athletearena/internal/metrics"
	basemw "github.com/mcoot/athletearena/internal/middleware"
	"github.com/mcoot/athletearena/internal/services/auth"
	"github.com/mcoot/athletearena/internal/services/registration"
	"github.com/mcoot/athletearena/internal/services/tournament"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	AuthService        *auth.Service
	TournamentService  *tournament.Service
	RegistrationEngine *registration.Engine
	// CORSOrigins lists allowed origins; "*" allows any
	CORSOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	tournamentHandler := handler.NewTournamentHandler(cfg.TournamentService, cfg.RegistrationEngine, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService, cfg.Logger)

	r.Use(basemw.RequestID())
	r.Use(basemw.Recovery(cfg.Logger, panicHandler))
	r.Use(basemw.Logging(cfg.Logger))
	r.Use(cfg.Metrics.HTTPMiddleware())

	// Prometheus scrape endpoint (no auth)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Account routes (no auth required for registering/logging in)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/tournaments", tournamentHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/tournaments", tournamentHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/tournaments/{id}", tournamentHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/tournaments/{id}/register", tournamentHandler.Register).Methods(http.MethodPost)
	protected.HandleFunc("/my-tournaments", tournamentHandler.Mine).Methods(http.MethodGet)

	return newCORS(cfg.CORSOrigins).Handler(r)
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{basemw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

func panicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}
