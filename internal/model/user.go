package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// Role determines which actions a user may perform. It is fixed at creation.
type Role string

const (
	RoleParticipant Role = "participant" // May register for tournaments
	RoleOrganizer   Role = "organizer"   // May create tournaments
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleOrganizer
}

// User is an account record. Email is globally unique.
type User struct {
	ID           UserID    `json:"id" bson:"id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	Role         Role      `json:"role" bson:"role"`
	Phone        *string   `json:"phone,omitempty" bson:"phone,omitempty"`
	PasswordHash string    `json:"password" bson:"password"` // bcrypt hash, never returned by the API
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// IsOrganizer reports whether the user may create tournaments
func (u *User) IsOrganizer() bool {
	return u.Role == RoleOrganizer
}

// IsParticipant reports whether the user may register for tournaments
func (u *User) IsParticipant() bool {
	return u.Role == RoleParticipant
}
