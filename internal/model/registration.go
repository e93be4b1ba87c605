package model

import "time"

// RegistrationID uniquely identifies a registration
type RegistrationID string

// RegistrationStatus is the state of a participant's registration
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusConfirmed  RegistrationStatus = "confirmed"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// Registration links a participant to a tournament.
// At most one non-cancelled registration exists per (UserID, TournamentID).
type Registration struct {
	ID           RegistrationID     `json:"id" bson:"id"`
	UserID       UserID             `json:"user_id" bson:"user_id"`
	TournamentID TournamentID       `json:"tournament_id" bson:"tournament_id"`
	Status       RegistrationStatus `json:"status" bson:"status"`
	RegisteredAt time.Time          `json:"registered_at" bson:"registered_at"`
}

// Active reports whether the registration still holds a place
func (r *Registration) Active() bool {
	return r.Status != RegistrationStatusCancelled
}
