package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	users         map[model.UserID]*model.User
	emailIndex    map[string]model.UserID
	tournaments   map[model.TournamentID]*model.Tournament
	tournamentSeq []model.TournamentID // insertion order
	registrations map[model.RegistrationID]*model.Registration
	pairIndex     map[pairKey]model.RegistrationID
	userRegs      map[model.UserID][]model.RegistrationID
}

type pairKey struct {
	userID       model.UserID
	tournamentID model.TournamentID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]*model.User),
		emailIndex:    make(map[string]model.UserID),
		tournaments:   make(map[model.TournamentID]*model.Tournament),
		registrations: make(map[model.RegistrationID]*model.Registration),
		pairIndex:     make(map[pairKey]model.RegistrationID),
		userRegs:      make(map[model.UserID][]model.RegistrationID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for the in-memory backend
func (s *Storage) Close() error {
	return nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emailIndex[user.Email]; taken {
		return model.ErrEmailTaken
	}
	u := *user
	s.users[u.ID] = &u
	s.emailIndex[u.Email] = u.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[email]
	s.mu.RUnlock()

	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// Tournament operations

func (s *Storage) CreateTournament(ctx context.Context, t *model.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tournaments[t.ID]; !exists {
		s.tournamentSeq = append(s.tournamentSeq, t.ID)
	}
	s.tournaments[t.ID] = copyTournament(t)
	return nil
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tournaments[id]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	return copyTournament(t), nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return s.filterTournaments(func(*model.Tournament) bool { return true }), nil
}

func (s *Storage) ListTournamentsByOrganizer(ctx context.Context, organizerID model.UserID) ([]*model.Tournament, error) {
	return s.filterTournaments(func(t *model.Tournament) bool {
		return t.OrganizerID == organizerID
	}), nil
}

func (s *Storage) ListTournamentsByIDs(ctx context.Context, ids []model.TournamentID) ([]*model.Tournament, error) {
	return s.filterTournaments(func(t *model.Tournament) bool {
		return slices.Contains(ids, t.ID)
	}), nil
}

func (s *Storage) filterTournaments(keep func(*model.Tournament) bool) []*model.Tournament {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*model.Tournament{}
	for _, id := range s.tournamentSeq {
		if len(result) >= storage.MaxListResults {
			break
		}
		t := s.tournaments[id]
		if keep(t) {
			result = append(result, copyTournament(t))
		}
	}
	return result
}

// Registration operations

func (s *Storage) GetRegistration(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) (*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regID, ok := s.pairIndex[pairKey{userID, tournamentID}]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	r := *s.registrations[regID]
	return &r, nil
}

func (s *Storage) ListRegistrationsByUser(ctx context.Context, userID model.UserID) ([]*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regIDs := s.userRegs[userID]
	result := make([]*model.Registration, 0, len(regIDs))
	for _, id := range regIDs {
		if len(result) >= storage.MaxListResults {
			break
		}
		r := *s.registrations[id]
		result = append(result, &r)
	}
	return result, nil
}

func (s *Storage) RegisterParticipant(ctx context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[reg.TournamentID]
	if !ok {
		return model.ErrTournamentNotFound
	}

	key := pairKey{reg.UserID, reg.TournamentID}
	if existingID, ok := s.pairIndex[key]; ok && s.registrations[existingID].Active() {
		return model.ErrAlreadyRegistered
	}

	if t.IsFull() {
		return model.ErrTournamentFull
	}

	r := *reg
	s.registrations[r.ID] = &r
	s.pairIndex[key] = r.ID
	s.userRegs[r.UserID] = append(s.userRegs[r.UserID], r.ID)
	t.Participants = append(t.Participants, r.UserID)
	return nil
}

func copyTournament(t *model.Tournament) *model.Tournament {
	c := *t
	c.Participants = slices.Clone(t.Participants)
	if c.Participants == nil {
		c.Participants = []model.UserID{}
	}
	return &c
}
