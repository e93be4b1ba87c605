package model

import (
	"slices"
	"time"
)

// TournamentID uniquely identifies a tournament
type TournamentID string

// TournamentStatus is the lifecycle state of a tournament
type TournamentStatus string

const (
	TournamentStatusUpcoming  TournamentStatus = "upcoming"
	TournamentStatusOngoing   TournamentStatus = "ongoing"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

// Tournament is an event organised by a single organizer.
// Invariant: len(Participants) <= MaxParticipants, and Participants holds
// unique user IDs in registration order.
type Tournament struct {
	ID              TournamentID     `json:"id" bson:"id"`
	Name            string           `json:"name" bson:"name"`
	Sport           string           `json:"sport" bson:"sport"`
	Description     string           `json:"description" bson:"description"`
	StartDate       time.Time        `json:"start_date" bson:"start_date"`
	EndDate         time.Time        `json:"end_date" bson:"end_date"`
	Location        string           `json:"location" bson:"location"`
	MaxParticipants int              `json:"max_participants" bson:"max_participants"`
	OrganizerID     UserID           `json:"organizer_id" bson:"organizer_id"`
	Status          TournamentStatus `json:"status" bson:"status"`
	Participants    []UserID         `json:"participants" bson:"participants"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
}

// IsFull reports whether the tournament has reached capacity
func (t *Tournament) IsFull() bool {
	return len(t.Participants) >= t.MaxParticipants
}

// HasParticipant reports whether the user is in the participant list
func (t *Tournament) HasParticipant(id UserID) bool {
	return slices.Contains(t.Participants, id)
}

// TournamentCreate holds the organizer-supplied fields of a new tournament
type TournamentCreate struct {
	Name            string    `json:"name" validate:"required"`
	Sport           string    `json:"sport" validate:"required"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Location        string    `json:"location" validate:"required"`
	MaxParticipants int       `json:"max_participants" validate:"gte=1"`
}

// TournamentView is a tournament decorated for a particular viewer
type TournamentView struct {
	Tournament
	OrganizerName     string
	ParticipantsCount int
	IsRegistered      bool
}

// UnknownOrganizerName is shown when a tournament's organizer record is missing
const UnknownOrganizerName = "Unknown"
