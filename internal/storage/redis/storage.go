package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
)

// ErrTxContention is returned when an optimistic transaction could not
// commit within Config.MaxTxRetries attempts
var ErrTxContention = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface.
// Records are stored as JSON documents; uniqueness and capacity checks run
// inside WATCH/MULTI/EXEC transactions.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	idxKey := emailIndexKey(user.Email)
	return s.withRetry(ctx, func(tx *redis.Tx) error {
		taken, err := tx.Exists(ctx, idxKey).Result()
		if err != nil {
			return err
		}
		if taken > 0 {
			return model.ErrEmailTaken
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(user.ID), data, 0)
			pipe.Set(ctx, idxKey, string(user.ID), 0)
			return nil
		})
		return err
	}, idxKey)
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := getJSON(ctx, s.client, userKey(id), &user, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(id))
}

// Tournament operations

func (s *Storage) CreateTournament(ctx context.Context, t *model.Tournament) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	score := float64(t.CreatedAt.UnixNano())
	member := redis.Z{Score: score, Member: string(t.ID)}

	// Use pipeline for atomic save + index update
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tournamentKey(t.ID), data, 0)
		pipe.ZAdd(ctx, tournamentsIndexKey(), member)
		pipe.ZAdd(ctx, organizerIndexKey(t.OrganizerID), member)
		return nil
	})
	return err
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	var t model.Tournament
	if err := getJSON(ctx, s.client, tournamentKey(id), &t, model.ErrTournamentNotFound); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return s.listIndexedTournaments(ctx, tournamentsIndexKey())
}

func (s *Storage) ListTournamentsByOrganizer(ctx context.Context, organizerID model.UserID) ([]*model.Tournament, error) {
	return s.listIndexedTournaments(ctx, organizerIndexKey(organizerID))
}

func (s *Storage) ListTournamentsByIDs(ctx context.Context, ids []model.TournamentID) ([]*model.Tournament, error) {
	if len(ids) > storage.MaxListResults {
		ids = ids[:storage.MaxListResults]
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = tournamentKey(id)
	}
	return s.mgetTournaments(ctx, keys)
}

func (s *Storage) listIndexedTournaments(ctx context.Context, indexKey string) ([]*model.Tournament, error) {
	members, err := s.client.ZRange(ctx, indexKey, 0, storage.MaxListResults-1).Result()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = tournamentKey(model.TournamentID(m))
	}
	return s.mgetTournaments(ctx, keys)
}

func (s *Storage) mgetTournaments(ctx context.Context, keys []string) ([]*model.Tournament, error) {
	if len(keys) == 0 {
		return []*model.Tournament{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	tournaments := make([]*model.Tournament, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Missing key
		}
		var t model.Tournament
		if err := json.Unmarshal([]byte(str), &t); err != nil {
			return nil, fmt.Errorf("decode tournament: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, nil
}

// Registration operations

func (s *Storage) GetRegistration(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) (*model.Registration, error) {
	id, err := s.client.Get(ctx, pairIndexKey(userID, tournamentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, err
	}

	var reg model.Registration
	if err := getJSON(ctx, s.client, registrationKey(model.RegistrationID(id)), &reg, model.ErrRegistrationNotFound); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *Storage) ListRegistrationsByUser(ctx context.Context, userID model.UserID) ([]*model.Registration, error) {
	regIDs, err := s.client.LRange(ctx, userRegistrationsKey(userID), 0, storage.MaxListResults-1).Result()
	if err != nil {
		return nil, err
	}
	if len(regIDs) == 0 {
		return []*model.Registration{}, nil
	}

	keys := make([]string, len(regIDs))
	for i, id := range regIDs {
		keys[i] = registrationKey(model.RegistrationID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	regs := make([]*model.Registration, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var reg model.Registration
		if err := json.Unmarshal([]byte(str), &reg); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		regs = append(regs, &reg)
	}
	return regs, nil
}

func (s *Storage) RegisterParticipant(ctx context.Context, reg *model.Registration) error {
	regData, err := json.Marshal(reg)
	if err != nil {
		return err
	}

	tKey := tournamentKey(reg.TournamentID)
	pKey := pairIndexKey(reg.UserID, reg.TournamentID)

	return s.withRetry(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, tKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrTournamentNotFound
			}
			return err
		}
		var t model.Tournament
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("decode tournament: %w", err)
		}

		active, err := s.hasActiveRegistration(ctx, tx, pKey)
		if err != nil {
			return err
		}
		if active {
			return model.ErrAlreadyRegistered
		}

		if t.IsFull() {
			return model.ErrTournamentFull
		}

		t.Participants = append(t.Participants, reg.UserID)
		tData, err := json.Marshal(&t)
		if err != nil {
			return err
		}

		// Commits only if neither watched key changed since it was read
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, tKey, tData, 0)
			pipe.Set(ctx, registrationKey(reg.ID), regData, 0)
			pipe.Set(ctx, pKey, string(reg.ID), 0)
			pipe.RPush(ctx, userRegistrationsKey(reg.UserID), string(reg.ID))
			return nil
		})
		return err
	}, tKey, pKey)
}

func (s *Storage) hasActiveRegistration(ctx context.Context, tx *redis.Tx, pKey string) (bool, error) {
	existingID, err := tx.Get(ctx, pKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// The registration body joins the watched set so a concurrent status
	// change aborts the transaction
	regKey := registrationKey(model.RegistrationID(existingID))
	if err := tx.Watch(ctx, regKey).Err(); err != nil {
		return false, err
	}

	var existing model.Registration
	err = getJSON(ctx, tx, regKey, &existing, model.ErrRegistrationNotFound)
	if errors.Is(err, model.ErrRegistrationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.Active(), nil
}

// withRetry runs fn in an optimistic transaction over the watched keys,
// retrying while another client modifies them concurrently
func (s *Storage) withRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ErrTxContention
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON(ctx context.Context, c getter, key string, dst any, notFound error) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}
