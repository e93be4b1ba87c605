// Package storagetest provides a conformance suite that every storage
// backend runs against its own implementation.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
)

// Suite exercises the storage.Storage contract.
// NewStorage is called once per test and must return an empty store.
type Suite struct {
	suite.Suite
	NewStorage func(t *testing.T) storage.Storage

	storage storage.Storage
	ctx     context.Context
}

// baseTime is second-aligned so every backend round-trips it exactly
var baseTime = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.storage = s.NewStorage(s.T())
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *Suite) user(id, email string, role model.Role) *model.User {
	return &model.User{
		ID:           model.UserID(id),
		Email:        email,
		Name:         "User " + id,
		Role:         role,
		PasswordHash: "hash-" + id,
		CreatedAt:    baseTime,
	}
}

func (s *Suite) tournament(id string, organizer model.UserID, capacity int) *model.Tournament {
	return &model.Tournament{
		ID:              model.TournamentID(id),
		Name:            "Cup " + id,
		Sport:           "tennis",
		Description:     "An open tournament",
		StartDate:       baseTime.Add(24 * time.Hour),
		EndDate:         baseTime.Add(48 * time.Hour),
		Location:        "Melbourne",
		MaxParticipants: capacity,
		OrganizerID:     organizer,
		Status:          model.TournamentStatusUpcoming,
		Participants:    []model.UserID{},
		CreatedAt:       baseTime,
	}
}

func (s *Suite) registration(id string, userID model.UserID, tournamentID model.TournamentID) *model.Registration {
	return &model.Registration{
		ID:           model.RegistrationID(id),
		UserID:       userID,
		TournamentID: tournamentID,
		Status:       model.RegistrationStatusRegistered,
		RegisteredAt: baseTime.Add(time.Hour),
	}
}

// User tests

func (s *Suite) TestCreateAndGetUser() {
	phone := "+61 400 000 000"
	u := s.user("u1", "alice@example.com", model.RoleParticipant)
	u.Phone = &phone
	s.Require().NoError(s.storage.CreateUser(s.ctx, u))

	got, err := s.storage.GetUser(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(u.Email, got.Email)
	s.Equal(u.Name, got.Name)
	s.Equal(model.RoleParticipant, got.Role)
	s.Equal(u.PasswordHash, got.PasswordHash)
	s.Require().NotNil(got.Phone)
	s.Equal(phone, *got.Phone)
	s.True(u.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetUserByEmail() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.user("u1", "alice@example.com", model.RoleOrganizer)))

	got, err := s.storage.GetUserByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.ID)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.storage.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestCreateUserRejectsDuplicateEmail() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.user("u1", "alice@example.com", model.RoleParticipant)))

	err := s.storage.CreateUser(s.ctx, s.user("u2", "alice@example.com", model.RoleOrganizer))
	s.ErrorIs(err, model.ErrEmailTaken)

	_, err = s.storage.GetUser(s.ctx, "u2")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Tournament tests

func (s *Suite) TestCreateAndGetTournament() {
	t := s.tournament("t1", "org", 8)
	s.Require().NoError(s.storage.CreateTournament(s.ctx, t))

	got, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal(t.Name, got.Name)
	s.Equal(t.Sport, got.Sport)
	s.Equal(t.Description, got.Description)
	s.Equal(t.Location, got.Location)
	s.Equal(8, got.MaxParticipants)
	s.Equal(model.UserID("org"), got.OrganizerID)
	s.Equal(model.TournamentStatusUpcoming, got.Status)
	s.Empty(got.Participants)
	s.True(t.StartDate.Equal(got.StartDate))
	s.True(t.EndDate.Equal(got.EndDate))
	s.True(t.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetTournamentNotFound() {
	_, err := s.storage.GetTournament(s.ctx, "missing")
	s.ErrorIs(err, model.ErrTournamentNotFound)
}

func (s *Suite) TestListTournaments() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org1", 4)))
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t2", "org2", 4)))
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t3", "org1", 4)))

	all, err := s.storage.ListTournaments(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.TournamentID{"t1", "t2", "t3"}, tournamentIDs(all))

	mine, err := s.storage.ListTournamentsByOrganizer(s.ctx, "org1")
	s.Require().NoError(err)
	s.ElementsMatch([]model.TournamentID{"t1", "t3"}, tournamentIDs(mine))

	picked, err := s.storage.ListTournamentsByIDs(s.ctx, []model.TournamentID{"t2", "t3", "missing"})
	s.Require().NoError(err)
	s.ElementsMatch([]model.TournamentID{"t2", "t3"}, tournamentIDs(picked))
}

func (s *Suite) TestListTournamentsEmpty() {
	all, err := s.storage.ListTournaments(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)

	picked, err := s.storage.ListTournamentsByIDs(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(picked)
}

// Registration tests

func (s *Suite) TestRegisterParticipant() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 2)))

	reg := s.registration("r1", "p1", "t1")
	s.Require().NoError(s.storage.RegisterParticipant(s.ctx, reg))

	got, err := s.storage.GetRegistration(s.ctx, "p1", "t1")
	s.Require().NoError(err)
	s.Equal(model.RegistrationID("r1"), got.ID)
	s.Equal(model.RegistrationStatusRegistered, got.Status)
	s.True(reg.RegisteredAt.Equal(got.RegisteredAt))

	t, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal([]model.UserID{"p1"}, t.Participants)

	regs, err := s.storage.ListRegistrationsByUser(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(regs, 1)
	s.Equal(model.TournamentID("t1"), regs[0].TournamentID)
}

func (s *Suite) TestRegisterParticipantKeepsRegistrationOrder() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 3)))

	for i, uid := range []model.UserID{"p2", "p1", "p3"} {
		reg := s.registration(fmt.Sprintf("r%d", i), uid, "t1")
		s.Require().NoError(s.storage.RegisterParticipant(s.ctx, reg))
	}

	t, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal([]model.UserID{"p2", "p1", "p3"}, t.Participants)
}

func (s *Suite) TestRegisterParticipantTournamentNotFound() {
	err := s.storage.RegisterParticipant(s.ctx, s.registration("r1", "p1", "missing"))
	s.ErrorIs(err, model.ErrTournamentNotFound)

	_, err = s.storage.GetRegistration(s.ctx, "p1", "missing")
	s.ErrorIs(err, model.ErrRegistrationNotFound)
}

func (s *Suite) TestRegisterParticipantTwiceConflicts() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 5)))
	s.Require().NoError(s.storage.RegisterParticipant(s.ctx, s.registration("r1", "p1", "t1")))

	err := s.storage.RegisterParticipant(s.ctx, s.registration("r2", "p1", "t1"))
	s.ErrorIs(err, model.ErrAlreadyRegistered)

	t, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Len(t.Participants, 1)

	regs, err := s.storage.ListRegistrationsByUser(s.ctx, "p1")
	s.Require().NoError(err)
	s.Len(regs, 1)
}

func (s *Suite) TestRegisterParticipantConflictCheckedBeforeCapacity() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 1)))
	s.Require().NoError(s.storage.RegisterParticipant(s.ctx, s.registration("r1", "p1", "t1")))

	err := s.storage.RegisterParticipant(s.ctx, s.registration("r2", "p1", "t1"))
	s.ErrorIs(err, model.ErrAlreadyRegistered)
}

func (s *Suite) TestRegisterParticipantAtCapacity() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 2)))
	s.Require().NoError(s.storage.RegisterParticipant(s.ctx, s.registration("r1", "p1", "t1")))

	// One place left: succeeds and fills the tournament
	s.Require().NoError(s.storage.RegisterParticipant(s.ctx, s.registration("r2", "p2", "t1")))

	err := s.storage.RegisterParticipant(s.ctx, s.registration("r3", "p3", "t1"))
	s.ErrorIs(err, model.ErrTournamentFull)

	t, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal([]model.UserID{"p1", "p2"}, t.Participants)

	_, err = s.storage.GetRegistration(s.ctx, "p3", "t1")
	s.ErrorIs(err, model.ErrRegistrationNotFound)
}

func (s *Suite) TestRegisterParticipantConcurrentSingleSlot() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 1)))

	results := s.registerConcurrently("t1", 2)

	s.Equal(int64(1), results.succeeded.Load())
	s.Equal(int64(1), results.rejected.Load())
	s.Zero(results.unexpected.Load())

	t, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Len(t.Participants, 1)
}

func (s *Suite) TestRegisterParticipantConcurrentManyUsers() {
	s.Require().NoError(s.storage.CreateTournament(s.ctx, s.tournament("t1", "org", 3)))

	results := s.registerConcurrently("t1", 10)

	s.Equal(int64(3), results.succeeded.Load())
	s.Equal(int64(7), results.rejected.Load())
	s.Zero(results.unexpected.Load())

	t, err := s.storage.GetTournament(s.ctx, "t1")
	s.Require().NoError(err)
	s.Len(t.Participants, 3)
}

type concurrentResults struct {
	succeeded  atomic.Int64
	rejected   atomic.Int64
	unexpected atomic.Int64
}

func (s *Suite) registerConcurrently(tournamentID model.TournamentID, users int) *concurrentResults {
	var (
		results concurrentResults
		wg      sync.WaitGroup
		start   = make(chan struct{})
	)

	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			reg := s.registration(fmt.Sprintf("r%d", i), model.UserID(fmt.Sprintf("p%d", i)), tournamentID)
			err := s.storage.RegisterParticipant(s.ctx, reg)
			switch {
			case err == nil:
				results.succeeded.Add(1)
			case errorsIsAny(err, model.ErrTournamentFull, model.ErrAlreadyRegistered):
				results.rejected.Add(1)
			default:
				results.unexpected.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &results
}

func tournamentIDs(ts []*model.Tournament) []model.TournamentID {
	ids := make([]model.TournamentID, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}
