package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/athletearena/internal/dependencies/clock"
	"github.com/mcoot/athletearena/internal/dependencies/ids"
	"github.com/mcoot/athletearena/internal/metrics"
	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
)

// Engine registers participants for tournaments while holding the
// capacity and one-registration-per-user invariants
type Engine struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates a new registration Engine
func NewEngine(
	storage storage.Storage,
	clock clock.Clock,
	ids ids.Generator,
	metrics *metrics.Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		storage: storage,
		clock:   clock,
		ids:     ids,
		metrics: metrics,
		logger:  logger,
	}
}

// Register signs the user up for a tournament.
// Only participants may register. The existence, duplicate and capacity
// checks and the write happen in one atomic store operation.
func (e *Engine) Register(ctx context.Context, user *model.User, tournamentID model.TournamentID) (*model.Registration, error) {
	if !user.IsParticipant() {
		e.metrics.RecordRegistration(metrics.OutcomeForbidden)
		return nil, model.ErrForbidden
	}

	reg := &model.Registration{
		ID:           model.RegistrationID(e.ids.NewID()),
		UserID:       user.ID,
		TournamentID: tournamentID,
		Status:       model.RegistrationStatusRegistered,
		RegisteredAt: e.clock.Now(),
	}

	if err := e.storage.RegisterParticipant(ctx, reg); err != nil {
		outcome := outcomeFor(err)
		e.metrics.RecordRegistration(outcome)
		if outcome == metrics.OutcomeError {
			e.logger.Error("registration failed",
				slog.String("user_id", string(user.ID)),
				slog.String("tournament_id", string(tournamentID)),
				slog.Any("error", err),
			)
		}
		return nil, err
	}

	e.metrics.RecordRegistration(metrics.OutcomeRegistered)
	e.logger.Info("participant registered",
		slog.String("registration_id", string(reg.ID)),
		slog.String("user_id", string(user.ID)),
		slog.String("tournament_id", string(tournamentID)),
	)
	return reg, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, model.ErrTournamentNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, model.ErrAlreadyRegistered):
		return metrics.OutcomeAlreadyRegistered
	case errors.Is(err, model.ErrTournamentFull):
		return metrics.OutcomeFull
	default:
		return metrics.OutcomeError
	}
}
