package auth

import (
	"context"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/athletearena/internal/dependencies/mocks"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage/memory"
	"github.com/mcoot/athletearena/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	ids     *mocks.MockIDs
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.metrics = metrics.New()
	s.service = New(s.storage, s.clock, s.ids, s.metrics, testutil.NopLogger(), Config{
		SecretKey:       "test-secret",
		TokenExpiration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	})
	s.ctx = context.Background()
}

func (s *ServiceSuite) register(email string, role model.Role) *Session {
	session, err := s.service.Register(s.ctx, RegisterInput{
		Email:    email,
		Name:     "Alice",
		Password: "password123",
		Role:     role,
	})
	s.Require().NoError(err)
	return session
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	s.ids.Queue("user-1")
	phone := "+44 7700 900000"

	session, err := s.service.Register(s.ctx, RegisterInput{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "password123",
		Role:     model.RoleParticipant,
		Phone:    &phone,
	})
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(model.UserID("user-1"), session.User.ID)
	s.Equal("alice@example.com", session.User.Email)
	s.Equal(model.RoleParticipant, session.User.Role)
	s.Equal(&phone, session.User.Phone)
	s.Equal(s.clock.Now(), session.User.CreatedAt)
}

func (s *ServiceSuite) TestRegisterStoresHashedPassword() {
	session := s.register("alice@example.com", model.RoleParticipant)

	user, err := s.storage.GetUser(s.ctx, session.User.ID)
	s.Require().NoError(err)
	s.NotEqual("password123", user.PasswordHash)
	s.True(VerifyPassword("password123", user.PasswordHash))
}

func (s *ServiceSuite) TestRegisterFailsIfEmailTaken() {
	s.register("alice@example.com", model.RoleParticipant)

	_, err := s.service.Register(s.ctx, RegisterInput{
		Email:    "alice@example.com",
		Name:     "Other Alice",
		Password: "different",
		Role:     model.RoleOrganizer,
	})
	s.ErrorIs(err, model.ErrEmailTaken)
}

func (s *ServiceSuite) TestRegisterValidatesInput() {
	valid := RegisterInput{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "password123",
		Role:     model.RoleParticipant,
	}

	cases := map[string]func(in *RegisterInput){
		"missing email": func(in *RegisterInput) { in.Email = "" },
		"bad email":     func(in *RegisterInput) { in.Email = "not-an-email" },
		"display name":  func(in *RegisterInput) { in.Email = "Alice <alice@example.com>" },
		"bracketed":     func(in *RegisterInput) { in.Email = "<alice@example.com>" },
		"inner space":   func(in *RegisterInput) { in.Email = "alice @example.com" },
		"missing name":  func(in *RegisterInput) { in.Name = "  " },
		"no password":   func(in *RegisterInput) { in.Password = "" },
		"unknown role":  func(in *RegisterInput) { in.Role = "admin" },
	}

	for name, mutate := range cases {
		s.Run(name, func() {
			in := valid
			mutate(&in)
			_, err := s.service.Register(s.ctx, in)

			var verr *model.ValidationError
			s.ErrorAs(err, &verr)
		})
	}
}

func (s *ServiceSuite) TestRegisterDisplayNameFormCannotReuseEmail() {
	s.register("alice@example.com", model.RoleParticipant)

	_, err := s.service.Register(s.ctx, RegisterInput{
		Email:    "Mallory <alice@example.com>",
		Name:     "Mallory",
		Password: "password123",
		Role:     model.RoleParticipant,
	})
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)

	_, err = s.storage.GetUserByEmail(s.ctx, "Mallory <alice@example.com>")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestRegisterTrimsEmail() {
	session := s.register("  alice@example.com\t", model.RoleParticipant)
	s.Equal("alice@example.com", session.User.Email)

	claims, err := s.service.Tokens().Verify(session.Token)
	s.Require().NoError(err)
	s.Equal("alice@example.com", claims.Email)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	registered := s.register("alice@example.com", model.RoleOrganizer)

	session, err := s.service.Login(s.ctx, "alice@example.com", "password123")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(registered.User.ID, session.User.ID)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	s.register("alice@example.com", model.RoleParticipant)

	_, err := s.service.Login(s.ctx, "alice@example.com", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginRecordsOutcomes() {
	s.register("alice@example.com", model.RoleParticipant)

	_, _ = s.service.Login(s.ctx, "alice@example.com", "password123")
	_, _ = s.service.Login(s.ctx, "alice@example.com", "nope")

	s.Equal(1.0, promtest.ToFloat64(s.metrics.LoginCounter.WithLabelValues("success")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.LoginCounter.WithLabelValues("failure")))
}

// Resolve tests

func (s *ServiceSuite) TestResolveReturnsUser() {
	session := s.register("alice@example.com", model.RoleParticipant)

	user, err := s.service.Resolve(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.User.ID, user.ID)
	s.Equal("alice@example.com", user.Email)
}

func (s *ServiceSuite) TestResolveFailsWithGarbageToken() {
	_, err := s.service.Resolve(s.ctx, "not.a.token")
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ServiceSuite) TestResolveFailsWhenUserMissing() {
	token, err := s.service.Tokens().Issue(&model.User{
		ID:    "ghost",
		Email: "ghost@example.com",
		Role:  model.RoleParticipant,
	})
	s.Require().NoError(err)

	_, err = s.service.Resolve(s.ctx, token)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ServiceSuite) TestResolveFailsWhenExpired() {
	session := s.register("alice@example.com", model.RoleParticipant)

	s.clock.Advance(2 * time.Hour)

	_, err := s.service.Resolve(s.ctx, session.Token)
	s.ErrorIs(err, ErrUnauthorized)
}
