package request

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=participant organizer"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateTournamentRequest is the request body for creating a tournament.
// Dates are ISO 8601 timestamps; a missing offset means UTC.
type CreateTournamentRequest struct {
	Name            string `json:"name" validate:"required"`
	Sport           string `json:"sport" validate:"required"`
	Description     string `json:"description"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date" validate:"required"`
	Location        string `json:"location" validate:"required"`
	MaxParticipants int    `json:"max_participants" validate:"gte=1"`
}
