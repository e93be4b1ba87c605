package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Tournament:
		o.printTournament(v)
	case TournamentDetails:
		o.printTournamentDetails(v)
	case TournamentList:
		o.printTournamentList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult combines user and token
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Tournament response type for a newly created tournament
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

// TournamentDetails response type
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

// TournamentList response type
type TournamentList []TournamentDetails

// MessageResult response type
type MessageResult struct {
	Message string `json:"message"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

const dateLayout = "2006-01-02 15:04 MST"

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s <%s> (%s)\n", u.Name, u.Email, u.ID)
	fmt.Fprintf(o.w, "Role: %s\n", u.Role)
	if u.Phone != nil {
		fmt.Fprintf(o.w, "Phone: %s\n", *u.Phone)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.Token)
}

func (o *Output) printTournament(t Tournament) {
	fmt.Fprintf(o.w, "Tournament: %s (%s)\n", t.Name, t.ID)
	fmt.Fprintf(o.w, "Sport: %s\n", t.Sport)
	fmt.Fprintf(o.w, "Where: %s\n", t.Location)
	fmt.Fprintf(o.w, "When: %s to %s\n", t.StartDate.Format(dateLayout), t.EndDate.Format(dateLayout))
	fmt.Fprintf(o.w, "Status: %s\n", t.Status)
	fmt.Fprintf(o.w, "Participants: %d/%d\n", len(t.Participants), t.MaxParticipants)
}

func (o *Output) printTournamentDetails(t TournamentDetails) {
	fmt.Fprintf(o.w, "Tournament: %s (%s)\n", t.Name, t.ID)
	fmt.Fprintf(o.w, "Sport: %s\n", t.Sport)
	fmt.Fprintf(o.w, "Organizer: %s\n", t.OrganizerName)
	fmt.Fprintf(o.w, "Where: %s\n", t.Location)
	fmt.Fprintf(o.w, "When: %s to %s\n", t.StartDate.Format(dateLayout), t.EndDate.Format(dateLayout))
	fmt.Fprintf(o.w, "Status: %s\n", t.Status)
	fmt.Fprintf(o.w, "Participants: %d/%d\n", t.ParticipantsCount, t.MaxParticipants)
	if t.IsRegistered {
		fmt.Fprintln(o.w, "You are registered")
	}
	if t.Description != "" {
		fmt.Fprintf(o.w, "\n%s\n", t.Description)
	}
}

func (o *Output) printTournamentList(list TournamentList) {
	if len(list) == 0 {
		fmt.Fprintln(o.w, "No tournaments")
		return
	}
	for _, t := range list {
		mark := " "
		if t.IsRegistered {
			mark = "*"
		}
		fmt.Fprintf(o.w, "%s %s  %-24s %-12s %3d/%-3d %s\n",
			mark, t.ID, t.Name, t.Sport, t.ParticipantsCount, t.MaxParticipants, t.StartDate.Format("2006-01-02"))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
