package storage

import (
	"context"

	"github.com/mcoot/athletearena/internal/model"
)

// MaxListResults caps the number of records returned by list operations
const MaxListResults = 1000

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	// CreateUser fails with model.ErrEmailTaken if the email is already in use
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Tournament operations
	CreateTournament(ctx context.Context, t *model.Tournament) error
	GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error)
	ListTournaments(ctx context.Context) ([]*model.Tournament, error)
	ListTournamentsByOrganizer(ctx context.Context, organizerID model.UserID) ([]*model.Tournament, error)
	ListTournamentsByIDs(ctx context.Context, ids []model.TournamentID) ([]*model.Tournament, error)

	// Registration operations
	GetRegistration(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) (*model.Registration, error)
	ListRegistrationsByUser(ctx context.Context, userID model.UserID) ([]*model.Registration, error)

	// RegisterParticipant atomically checks and records a registration:
	// the tournament must exist (model.ErrTournamentNotFound), the user must
	// not already hold an active registration for it (model.ErrAlreadyRegistered),
	// and it must have spare capacity (model.ErrTournamentFull). On success
	// the registration is stored and reg.UserID is appended to the
	// tournament's participants. Checks are applied in that order.
	RegisterParticipant(ctx context.Context, reg *model.Registration) error

	// Close releases any connections held by the backend
	Close() error
}
