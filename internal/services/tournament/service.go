package tournament

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/athletearena/internal/dependencies/clock"
	"github.com/mcoot/athletearena/internal/dependencies/ids"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
	"github.com/mcoot/athletearena/internal/validation"
)

// Service creates tournaments and composes viewer-specific views of them
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a new tournament Service
func NewService(
	storage storage.Storage,
	clock clock.Clock,
	ids ids.Generator,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		metrics: metrics,
		logger:  logger,
	}
}

// Create stores a new upcoming tournament owned by the organizer
func (s *Service) Create(ctx context.Context, organizer *model.User, in model.TournamentCreate) (*model.Tournament, error) {
	if !organizer.IsOrganizer() {
		return nil, model.ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Sport = strings.TrimSpace(in.Sport)
	in.Location = strings.TrimSpace(in.Location)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	t := &model.Tournament{
		ID:              model.TournamentID(s.ids.NewID()),
		Name:            in.Name,
		Sport:           in.Sport,
		Description:     in.Description,
		StartDate:       in.StartDate.UTC(),
		EndDate:         in.EndDate.UTC(),
		Location:        in.Location,
		MaxParticipants: in.MaxParticipants,
		OrganizerID:     organizer.ID,
		Status:          model.TournamentStatusUpcoming,
		Participants:    []model.UserID{},
		CreatedAt:       s.clock.Now(),
	}

	if err := s.storage.CreateTournament(ctx, t); err != nil {
		return nil, err
	}

	s.metrics.RecordTournamentCreated()
	s.logger.Info("tournament created",
		slog.String("tournament_id", string(t.ID)),
		slog.String("organizer_id", string(organizer.ID)),
		slog.Int("max_participants", t.MaxParticipants),
	)
	return t, nil
}

// Get returns one tournament decorated for the viewer
func (s *Service) Get(ctx context.Context, viewer *model.User, id model.TournamentID) (*model.TournamentView, error) {
	t, err := s.storage.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Decorate(ctx, t, viewer)
}

// List returns every tournament decorated for the viewer
func (s *Service) List(ctx context.Context, viewer *model.User) ([]*model.TournamentView, error) {
	tournaments, err := s.storage.ListTournaments(ctx)
	if err != nil {
		return nil, err
	}
	return s.decorateAll(ctx, tournaments, viewer, false)
}

// ListMine returns the tournaments an organizer runs, or those a
// participant holds an active registration for
func (s *Service) ListMine(ctx context.Context, user *model.User) ([]*model.TournamentView, error) {
	var (
		tournaments []*model.Tournament
		err         error
	)

	if user.IsOrganizer() {
		tournaments, err = s.storage.ListTournamentsByOrganizer(ctx, user.ID)
	} else {
		tournaments, err = s.registeredTournaments(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	return s.decorateAll(ctx, tournaments, user, true)
}

func (s *Service) registeredTournaments(ctx context.Context, userID model.UserID) ([]*model.Tournament, error) {
	regs, err := s.storage.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tournamentIDs := make([]model.TournamentID, 0, len(regs))
	for _, r := range regs {
		if r.Active() {
			tournamentIDs = append(tournamentIDs, r.TournamentID)
		}
	}
	return s.storage.ListTournamentsByIDs(ctx, tournamentIDs)
}

// Decorate adds the organizer name, participant count and the viewer's
// registration state to a tournament
func (s *Service) Decorate(ctx context.Context, t *model.Tournament, viewer *model.User) (*model.TournamentView, error) {
	name, err := s.organizerName(ctx, t.OrganizerID)
	if err != nil {
		return nil, err
	}

	registered, err := s.isRegistered(ctx, viewer.ID, t.ID)
	if err != nil {
		return nil, err
	}

	return newView(t, name, registered), nil
}

// decorateAll decorates a batch, looking each organizer up once.
// With forceRegistered every view reports IsRegistered.
func (s *Service) decorateAll(ctx context.Context, tournaments []*model.Tournament, viewer *model.User, forceRegistered bool) ([]*model.TournamentView, error) {
	names := make(map[model.UserID]string)
	views := make([]*model.TournamentView, 0, len(tournaments))

	for _, t := range tournaments {
		name, ok := names[t.OrganizerID]
		if !ok {
			var err error
			name, err = s.organizerName(ctx, t.OrganizerID)
			if err != nil {
				return nil, err
			}
			names[t.OrganizerID] = name
		}

		registered := forceRegistered
		if !registered {
			var err error
			registered, err = s.isRegistered(ctx, viewer.ID, t.ID)
			if err != nil {
				return nil, err
			}
		}

		views = append(views, newView(t, name, registered))
	}
	return views, nil
}

func (s *Service) organizerName(ctx context.Context, id model.UserID) (string, error) {
	organizer, err := s.storage.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.UnknownOrganizerName, nil
		}
		return "", err
	}
	return organizer.Name, nil
}

func (s *Service) isRegistered(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) (bool, error) {
	reg, err := s.storage.GetRegistration(ctx, userID, tournamentID)
	if err != nil {
		if errors.Is(err, model.ErrRegistrationNotFound) {
			return false, nil
		}
		return false, err
	}
	return reg.Active(), nil
}

func newView(t *model.Tournament, organizerName string, registered bool) *model.TournamentView {
	return &model.TournamentView{
		Tournament:        *t,
		OrganizerName:     organizerName,
		ParticipantsCount: len(t.Participants),
		IsRegistered:      registered,
	}
}
