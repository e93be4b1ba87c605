package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/athletearena/internal/dependencies/mocks"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage/memory"
	"github.com/mcoot/athletearena/internal/testutil"
)

type EngineSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	ids     *mocks.MockIDs
	metrics *metrics.Metrics
	engine  *Engine
	ctx     context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs()
	s.metrics = metrics.New()
	s.engine = NewEngine(s.storage, s.clock, s.ids, s.metrics, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *EngineSuite) user(id string, role model.Role) *model.User {
	u := &model.User{
		ID:        model.UserID(id),
		Email:     id + "@example.com",
		Name:      id,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))
	return u
}

func (s *EngineSuite) tournament(id string, capacity int) *model.Tournament {
	t := &model.Tournament{
		ID:              model.TournamentID(id),
		Name:            "Spring Open",
		Sport:           "tennis",
		StartDate:       s.clock.Now().Add(24 * time.Hour),
		EndDate:         s.clock.Now().Add(48 * time.Hour),
		Location:        "Court 1",
		MaxParticipants: capacity,
		OrganizerID:     "org",
		Status:          model.TournamentStatusUpcoming,
		Participants:    []model.UserID{},
		CreatedAt:       s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreateTournament(s.ctx, t))
	return t
}

func (s *EngineSuite) outcomes(outcome string) float64 {
	return promtest.ToFloat64(s.metrics.RegistrationCounter.WithLabelValues(outcome))
}

func (s *EngineSuite) TestRegisterSucceeds() {
	alice := s.user("alice", model.RoleParticipant)
	t := s.tournament("t1", 2)
	s.ids.Queue("reg-1")

	reg, err := s.engine.Register(s.ctx, alice, t.ID)
	s.Require().NoError(err)

	s.Equal(model.RegistrationID("reg-1"), reg.ID)
	s.Equal(alice.ID, reg.UserID)
	s.Equal(t.ID, reg.TournamentID)
	s.Equal(model.RegistrationStatusRegistered, reg.Status)
	s.Equal(s.clock.Now(), reg.RegisteredAt)

	stored, err := s.storage.GetTournament(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal([]model.UserID{alice.ID}, stored.Participants)
	s.Equal(1.0, s.outcomes(metrics.OutcomeRegistered))
}

func (s *EngineSuite) TestOrganizerIsForbidden() {
	org := s.user("org", model.RoleOrganizer)
	t := s.tournament("t1", 2)

	_, err := s.engine.Register(s.ctx, org, t.ID)
	s.ErrorIs(err, model.ErrForbidden)

	stored, _ := s.storage.GetTournament(s.ctx, t.ID)
	s.Empty(stored.Participants)
	s.Equal(1.0, s.outcomes(metrics.OutcomeForbidden))
}

func (s *EngineSuite) TestForbiddenCheckedBeforeExistence() {
	org := s.user("org", model.RoleOrganizer)

	_, err := s.engine.Register(s.ctx, org, "missing")
	s.ErrorIs(err, model.ErrForbidden)
}

func (s *EngineSuite) TestUnknownTournament() {
	alice := s.user("alice", model.RoleParticipant)

	_, err := s.engine.Register(s.ctx, alice, "missing")
	s.ErrorIs(err, model.ErrTournamentNotFound)
	s.Equal(1.0, s.outcomes(metrics.OutcomeNotFound))
}

func (s *EngineSuite) TestRegisterTwiceConflicts() {
	alice := s.user("alice", model.RoleParticipant)
	t := s.tournament("t1", 5)

	_, err := s.engine.Register(s.ctx, alice, t.ID)
	s.Require().NoError(err)

	_, err = s.engine.Register(s.ctx, alice, t.ID)
	s.ErrorIs(err, model.ErrAlreadyRegistered)

	stored, _ := s.storage.GetTournament(s.ctx, t.ID)
	s.Len(stored.Participants, 1)
	s.Equal(1.0, s.outcomes(metrics.OutcomeAlreadyRegistered))
}

func (s *EngineSuite) TestFullTournamentRejects() {
	alice := s.user("alice", model.RoleParticipant)
	bob := s.user("bob", model.RoleParticipant)
	t := s.tournament("t1", 1)

	_, err := s.engine.Register(s.ctx, alice, t.ID)
	s.Require().NoError(err)

	_, err = s.engine.Register(s.ctx, bob, t.ID)
	s.ErrorIs(err, model.ErrTournamentFull)
	s.Equal(1.0, s.outcomes(metrics.OutcomeFull))

	_, err = s.storage.GetRegistration(s.ctx, bob.ID, t.ID)
	s.ErrorIs(err, model.ErrRegistrationNotFound)
}

func (s *EngineSuite) TestConcurrentRegistrationsRespectCapacity() {
	const capacity = 3
	const users = 12
	t := s.tournament("t1", capacity)

	participants := make([]*model.User, users)
	for i := range participants {
		participants[i] = s.user(fmt.Sprintf("user-%d", i), model.RoleParticipant)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)
	for _, u := range participants {
		wg.Add(1)
		go func(u *model.User) {
			defer wg.Done()
			_, err := s.engine.Register(s.ctx, u, t.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrTournamentFull):
				full++
			}
		}(u)
	}
	wg.Wait()

	s.Equal(capacity, succeeded)
	s.Equal(users-capacity, full)

	stored, err := s.storage.GetTournament(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Len(stored.Participants, capacity)
}

func (s *EngineSuite) TestConcurrentDuplicateRegistration() {
	alice := s.user("alice", model.RoleParticipant)
	t := s.tournament("t1", 10)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.engine.Register(s.ctx, alice, t.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrAlreadyRegistered)
		}
	}
	s.Equal(1, succeeded)

	stored, _ := s.storage.GetTournament(s.ctx, t.ID)
	s.Equal([]model.UserID{alice.ID}, stored.Participants)
}
