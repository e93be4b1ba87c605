package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/athletearena/internal/api/middleware"
	"github.com/mcoot/athletearena/internal/api/request"
	"github.com/mcoot/athletearena/internal/api/response"
	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/services/registration"
	"github.com/mcoot/athletearena/internal/services/tournament"
)

// RegisteredMessage is returned after a successful registration
const RegisteredMessage = "Successfully registered for tournament"

// TournamentHandler handles tournament endpoints
type TournamentHandler struct {
	tournaments   *tournament.Service
	registrations *registration.Engine
	logger        *slog.Logger
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(tournaments *tournament.Service, registrations *registration.Engine, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		tournaments:   tournaments,
		registrations: registrations,
		logger:        logger,
	}
}

// Create handles POST /api/tournaments
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	// Role is checked before the body so participants always see 403
	if !user.IsOrganizer() {
		WriteError(w, model.ErrForbidden)
		return
	}

	var req request.CreateTournamentRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		WriteError(w, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		WriteError(w, err)
		return
	}

	t, err := h.tournaments.Create(r.Context(), user, model.TournamentCreate{
		Name:            req.Name,
		Sport:           req.Sport,
		Description:     req.Description,
		StartDate:       start,
		EndDate:         end,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentFromModel(t))
}

// List handles GET /api/tournaments
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	views, err := h.tournaments.List(r.Context(), user)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentDetailsList(views))
}

// Get handles GET /api/tournaments/{id}
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.TournamentID(mux.Vars(r)["id"])

	view, err := h.tournaments.Get(r.Context(), user, id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentDetailsFromView(view))
}

// Register handles POST /api/tournaments/{id}/register
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := model.TournamentID(mux.Vars(r)["id"])

	if _, err := h.registrations.Register(r.Context(), user, id); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.WriteMessage(w, RegisteredMessage)
}

// Mine handles GET /api/my-tournaments
func (h *TournamentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	views, err := h.tournaments.ListMine(r.Context(), user)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentDetailsList(views))
}

// dateLayouts are tried in order; layouts without an offset are read as UTC
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseDate(field, value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewInvalidRequestError(field + " must be an ISO 8601 timestamp")
}
