package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/athletearena/internal/dependencies/clock"
	"github.com/mcoot/athletearena/internal/dependencies/ids"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
	"github.com/mcoot/athletearena/internal/validation"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("could not validate credentials")
)

// Config holds configuration for the auth service
type Config struct {
	SecretKey       string
	TokenExpiration time.Duration
	BcryptCost      int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SecretKey:       "dev-secret-change-me",
		TokenExpiration: 24 * time.Hour,
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Name     string     `json:"name" validate:"required"`
	Password string     `json:"password" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=participant organizer"`
	Phone    *string    `json:"phone"`
}

// Session is an authenticated user together with their bearer token
type Session struct {
	User  *model.User
	Token string
}

// Service handles account creation, login and identity resolution
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	tokens  *TokenService
	metrics *metrics.Metrics
	logger  *slog.Logger
	cost    int
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, metrics *metrics.Metrics, logger *slog.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.TokenExpiration <= 0 {
		cfg.TokenExpiration = defaults.TokenExpiration
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = defaults.SecretKey
	}
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		tokens:  NewTokenService(cfg.SecretKey, cfg.TokenExpiration, clock),
		metrics: metrics,
		logger:  logger,
		cost:    cfg.BcryptCost,
	}
}

// Tokens returns the token service used to sign sessions
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Register creates an account and returns a session for it
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	_, err := s.storage.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, model.ErrEmailTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           model.UserID(s.ids.NewID()),
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		Phone:        in.Phone,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}

	// The store rejects a duplicate email that raced past the lookup above
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.RecordSignup(string(user.Role))
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.newSession(user)
}

// Login authenticates by email and password and returns a session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.storage.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.metrics.RecordLogin(false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(true)
	return s.newSession(user)
}

// Resolve maps a bearer token to the user it was issued for.
// An invalid token and a missing user both yield ErrUnauthorized.
func (s *Service) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.storage.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) newSession(user *model.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}
