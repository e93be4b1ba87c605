package postgres

import (
	"time"

	"github.com/mcoot/athletearena/internal/model"
)

// userRow is the users table
type userRow struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	Role         string `gorm:"not null"`
	Phone        *string
	PasswordHash string `gorm:"column:password;not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func userRowFromModel(u *model.User) *userRow {
	return &userRow{
		ID:           string(u.ID),
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:           model.UserID(r.ID),
		Email:        r.Email,
		Name:         r.Name,
		Role:         model.Role(r.Role),
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// tournamentRow is the tournaments table. The participant list lives in
// registrations; ParticipantCount is the counter guarded by the capacity check.
type tournamentRow struct {
	ID               string `gorm:"primaryKey"`
	Name             string `gorm:"not null"`
	Sport            string `gorm:"not null"`
	Description      string
	StartDate        time.Time
	EndDate          time.Time
	Location         string
	MaxParticipants  int    `gorm:"not null"`
	ParticipantCount int    `gorm:"not null;default:0"`
	OrganizerID      string `gorm:"index;not null"`
	Status           string `gorm:"not null"`
	CreatedAt        time.Time
}

func (tournamentRow) TableName() string { return "tournaments" }

func tournamentRowFromModel(t *model.Tournament) *tournamentRow {
	return &tournamentRow{
		ID:               string(t.ID),
		Name:             t.Name,
		Sport:            t.Sport,
		Description:      t.Description,
		StartDate:        t.StartDate,
		EndDate:          t.EndDate,
		Location:         t.Location,
		MaxParticipants:  t.MaxParticipants,
		ParticipantCount: len(t.Participants),
		OrganizerID:      string(t.OrganizerID),
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt,
	}
}

func (r *tournamentRow) toModel(participants []model.UserID) *model.Tournament {
	if participants == nil {
		participants = []model.UserID{}
	}
	return &model.Tournament{
		ID:              model.TournamentID(r.ID),
		Name:            r.Name,
		Sport:           r.Sport,
		Description:     r.Description,
		StartDate:       r.StartDate.UTC(),
		EndDate:         r.EndDate.UTC(),
		Location:        r.Location,
		MaxParticipants: r.MaxParticipants,
		OrganizerID:     model.UserID(r.OrganizerID),
		Status:          model.TournamentStatus(r.Status),
		Participants:    participants,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

// registrationRow is the registrations table. Position is the participant's
// 1-based slot in the tournament, taken from the incremented counter.
type registrationRow struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"not null;uniqueIndex:idx_registration_pair"`
	TournamentID string `gorm:"not null;uniqueIndex:idx_registration_pair;index"`
	Status       string `gorm:"not null"`
	Position     int    `gorm:"not null"`
	RegisteredAt time.Time
}

func (registrationRow) TableName() string { return "registrations" }

func (r *registrationRow) toModel() *model.Registration {
	return &model.Registration{
		ID:           model.RegistrationID(r.ID),
		UserID:       model.UserID(r.UserID),
		TournamentID: model.TournamentID(r.TournamentID),
		Status:       model.RegistrationStatus(r.Status),
		RegisteredAt: r.RegisteredAt.UTC(),
	}
}
