package response

import (
	"time"

	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/services/auth"
)

// User represents a user in API responses. The password hash is never included.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for the register and login endpoints
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:  UserFromModel(s.User),
		Token: s.Token,
	}
}

// Tournament represents a stored tournament
type Tournament struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Sport           string    `json:"sport"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Location        string    `json:"location"`
	MaxParticipants int       `json:"max_participants"`
	OrganizerID     string    `json:"organizer_id"`
	Status          string    `json:"status"`
	Participants    []string  `json:"participants"`
	CreatedAt       time.Time `json:"created_at"`
}

// TournamentFromModel converts a model.Tournament
func TournamentFromModel(t *model.Tournament) Tournament {
	participants := make([]string, len(t.Participants))
	for i, p := range t.Participants {
		participants[i] = string(p)
	}
	return Tournament{
		ID:              string(t.ID),
		Name:            t.Name,
		Sport:           t.Sport,
		Description:     t.Description,
		StartDate:       t.StartDate,
		EndDate:         t.EndDate,
		Location:        t.Location,
		MaxParticipants: t.MaxParticipants,
		OrganizerID:     string(t.OrganizerID),
		Status:          string(t.Status),
		Participants:    participants,
		CreatedAt:       t.CreatedAt,
	}
}

// TournamentDetails is a tournament as seen by a particular viewer
type TournamentDetails struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Sport             string    `json:"sport"`
	Description       string    `json:"description"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	Location          string    `json:"location"`
	MaxParticipants   int       `json:"max_participants"`
	OrganizerName     string    `json:"organizer_name"`
	Status            string    `json:"status"`
	ParticipantsCount int       `json:"participants_count"`
	IsRegistered      bool      `json:"is_registered"`
}

// TournamentDetailsFromView converts a model.TournamentView
func TournamentDetailsFromView(v *model.TournamentView) TournamentDetails {
	return TournamentDetails{
		ID:                string(v.ID),
		Name:              v.Name,
		Sport:             v.Sport,
		Description:       v.Description,
		StartDate:         v.StartDate,
		EndDate:           v.EndDate,
		Location:          v.Location,
		MaxParticipants:   v.MaxParticipants,
		OrganizerName:     v.OrganizerName,
		Status:            string(v.Status),
		ParticipantsCount: v.ParticipantsCount,
		IsRegistered:      v.IsRegistered,
	}
}

// TournamentDetailsList converts a slice of views, never returning nil
func TournamentDetailsList(views []*model.TournamentView) []TournamentDetails {
	out := make([]TournamentDetails, len(views))
	for i, v := range views {
		out[i] = TournamentDetailsFromView(v)
	}
	return out
}

// Message is a plain acknowledgement
type Message struct {
	Message string `json:"message"`
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
