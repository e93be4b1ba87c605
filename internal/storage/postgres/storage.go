package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
)

// Storage is a PostgreSQL implementation of the storage interface built on gorm.
// Capacity is enforced by a conditional counter update and uniqueness by a
// unique index on (user_id, tournament_id), both inside one transaction.
type Storage struct {
	db *gorm.DB
}

// New connects to PostgreSQL, configures the pool and migrates the schema
func New(cfg Config, logger *slog.Logger) (*Storage, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.New(
			slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             cfg.SlowQueryThreshold,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get connection pool: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&userRow{}, &tournamentRow{}, &registrationRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	err := s.db.WithContext(ctx).Create(userRowFromModel(user)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.ErrEmailTaken
	}
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.firstUser(ctx, "id = ?", string(id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.firstUser(ctx, "email = ?", email)
}

func (s *Storage) firstUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// Tournament operations

func (s *Storage) CreateTournament(ctx context.Context, t *model.Tournament) error {
	return s.db.WithContext(ctx).Create(tournamentRowFromModel(t)).Error
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	var row tournamentRow
	if err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTournamentNotFound
		}
		return nil, err
	}

	participants, err := s.participants(ctx, []string{row.ID})
	if err != nil {
		return nil, err
	}
	return row.toModel(participants[row.ID]), nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return s.findTournaments(ctx, s.db.WithContext(ctx))
}

func (s *Storage) ListTournamentsByOrganizer(ctx context.Context, organizerID model.UserID) ([]*model.Tournament, error) {
	return s.findTournaments(ctx, s.db.WithContext(ctx).Where("organizer_id = ?", string(organizerID)))
}

func (s *Storage) ListTournamentsByIDs(ctx context.Context, ids []model.TournamentID) ([]*model.Tournament, error) {
	if len(ids) == 0 {
		return []*model.Tournament{}, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	return s.findTournaments(ctx, s.db.WithContext(ctx).Where("id IN ?", raw))
}

func (s *Storage) findTournaments(ctx context.Context, query *gorm.DB) ([]*model.Tournament, error) {
	var rows []tournamentRow
	err := query.Order("created_at").Order("id").Limit(storage.MaxListResults).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	participants, err := s.participants(ctx, ids)
	if err != nil {
		return nil, err
	}

	tournaments := make([]*model.Tournament, len(rows))
	for i := range rows {
		tournaments[i] = rows[i].toModel(participants[rows[i].ID])
	}
	return tournaments, nil
}

// participants loads the active participant lists of the given tournaments in slot order
func (s *Storage) participants(ctx context.Context, tournamentIDs []string) (map[string][]model.UserID, error) {
	result := make(map[string][]model.UserID, len(tournamentIDs))
	if len(tournamentIDs) == 0 {
		return result, nil
	}

	var regs []registrationRow
	err := s.db.WithContext(ctx).
		Where("tournament_id IN ? AND status <> ?", tournamentIDs, string(model.RegistrationStatusCancelled)).
		Order("tournament_id").Order("position").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	for _, r := range regs {
		result[r.TournamentID] = append(result[r.TournamentID], model.UserID(r.UserID))
	}
	return result, nil
}

// Registration operations

func (s *Storage) GetRegistration(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) (*model.Registration, error) {
	var row registrationRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND tournament_id = ?", string(userID), string(tournamentID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Storage) ListRegistrationsByUser(ctx context.Context, userID model.UserID) ([]*model.Registration, error) {
	var rows []registrationRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", string(userID)).
		Order("registered_at").
		Limit(storage.MaxListResults).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	regs := make([]*model.Registration, len(rows))
	for i := range rows {
		regs[i] = rows[i].toModel()
	}
	return regs, nil
}

func (s *Storage) RegisterParticipant(ctx context.Context, reg *model.Registration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&tournamentRow{}).Where("id = ?", string(reg.TournamentID)).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return model.ErrTournamentNotFound
		}

		var active int64
		err := tx.Model(&registrationRow{}).
			Where("user_id = ? AND tournament_id = ? AND status <> ?",
				string(reg.UserID), string(reg.TournamentID), string(model.RegistrationStatusCancelled)).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return model.ErrAlreadyRegistered
		}

		// The row lock taken by this update serialises concurrent registrations
		var updated tournamentRow
		res := tx.Model(&updated).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "participant_count"}}}).
			Where("id = ? AND participant_count < max_participants", string(reg.TournamentID)).
			UpdateColumn("participant_count", gorm.Expr("participant_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrTournamentFull
		}

		row := &registrationRow{
			ID:           string(reg.ID),
			UserID:       string(reg.UserID),
			TournamentID: string(reg.TournamentID),
			Status:       string(reg.Status),
			Position:     updated.ParticipantCount,
			RegisteredAt: reg.RegisteredAt,
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return model.ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
}
