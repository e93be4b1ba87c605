package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/athletearena/internal/model"
	"github.com/mcoot/athletearena/internal/storage"
)

const (
	usersCollection         = "users"
	tournamentsCollection   = "tournaments"
	registrationsCollection = "registrations"
)

// Storage is a MongoDB implementation of the storage interface.
// Uniqueness is enforced by indexes; capacity by a conditional $push on the
// tournament document, with the registration removed again if the push misses.
type Storage struct {
	client        *mongo.Client
	users         *mongo.Collection
	tournaments   *mongo.Collection
	registrations *mongo.Collection
}

// New connects to MongoDB and ensures the required indexes exist
func New(ctx context.Context, cfg Config) (*Storage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URL)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Storage{
		client:        client,
		users:         db.Collection(usersCollection),
		tournaments:   db.Collection(tournamentsCollection),
		registrations: db.Collection(registrationsCollection),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	}); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	if _, err := s.tournaments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "organizer_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create tournament indexes: %w", err)
	}

	if _, err := s.registrations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "tournament_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "registered_at", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create registration indexes: %w", err)
	}
	return nil
}

// Close disconnects the client
func (s *Storage) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrEmailTaken
	}
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.findUser(ctx, bson.M{"id": id})
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Storage) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// Tournament operations

func (s *Storage) CreateTournament(ctx context.Context, t *model.Tournament) error {
	doc := *t
	if doc.Participants == nil {
		doc.Participants = []model.UserID{}
	}
	_, err := s.tournaments.InsertOne(ctx, &doc)
	return err
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	var t model.Tournament
	if err := s.tournaments.FindOne(ctx, bson.M{"id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrTournamentNotFound
		}
		return nil, err
	}
	normalizeTournament(&t)
	return &t, nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return s.findTournaments(ctx, bson.M{})
}

func (s *Storage) ListTournamentsByOrganizer(ctx context.Context, organizerID model.UserID) ([]*model.Tournament, error) {
	return s.findTournaments(ctx, bson.M{"organizer_id": organizerID})
}

func (s *Storage) ListTournamentsByIDs(ctx context.Context, ids []model.TournamentID) ([]*model.Tournament, error) {
	if len(ids) == 0 {
		return []*model.Tournament{}, nil
	}
	return s.findTournaments(ctx, bson.M{"id": bson.M{"$in": ids}})
}

func (s *Storage) findTournaments(ctx context.Context, filter bson.M) ([]*model.Tournament, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}}).
		SetLimit(storage.MaxListResults)

	cursor, err := s.tournaments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	tournaments := []*model.Tournament{}
	if err := cursor.All(ctx, &tournaments); err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		normalizeTournament(t)
	}
	return tournaments, nil
}

func normalizeTournament(t *model.Tournament) {
	if t.Participants == nil {
		t.Participants = []model.UserID{}
	}
	t.StartDate = t.StartDate.UTC()
	t.EndDate = t.EndDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
}

// Registration operations

func (s *Storage) GetRegistration(ctx context.Context, userID model.UserID, tournamentID model.TournamentID) (*model.Registration, error) {
	var reg model.Registration
	err := s.registrations.FindOne(ctx, bson.M{"user_id": userID, "tournament_id": tournamentID}).Decode(&reg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, err
	}
	reg.RegisteredAt = reg.RegisteredAt.UTC()
	return &reg, nil
}

func (s *Storage) ListRegistrationsByUser(ctx context.Context, userID model.UserID) ([]*model.Registration, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "registered_at", Value: 1}}).
		SetLimit(storage.MaxListResults)

	cursor, err := s.registrations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}

	regs := []*model.Registration{}
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, err
	}
	for _, r := range regs {
		r.RegisteredAt = r.RegisteredAt.UTC()
	}
	return regs, nil
}

func (s *Storage) RegisterParticipant(ctx context.Context, reg *model.Registration) error {
	t, err := s.GetTournament(ctx, reg.TournamentID)
	if err != nil {
		return err
	}

	existing, err := s.GetRegistration(ctx, reg.UserID, reg.TournamentID)
	switch {
	case err == nil && existing.Active():
		return model.ErrAlreadyRegistered
	case err != nil && !errors.Is(err, model.ErrRegistrationNotFound):
		return err
	}

	if t.IsFull() {
		return model.ErrTournamentFull
	}

	// The unique (user_id, tournament_id) index settles races between
	// duplicate registrations of the same user
	if _, err := s.registrations.InsertOne(ctx, reg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrAlreadyRegistered
		}
		return err
	}

	// Single-document updates are atomic, so the size guard holds capacity
	filter := bson.M{
		"id":           reg.TournamentID,
		"participants": bson.M{"$ne": reg.UserID},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$participants"}, "$max_participants"},
		},
	}
	update := bson.M{"$push": bson.M{"participants": reg.UserID}}

	res, err := s.tournaments.UpdateOne(ctx, filter, update)
	if err == nil && res.MatchedCount == 1 {
		return nil
	}

	if _, delErr := s.registrations.DeleteOne(context.WithoutCancel(ctx), bson.M{"id": reg.ID}); delErr != nil {
		return fmt.Errorf("remove registration %s after failed capacity update: %w", reg.ID, delErr)
	}
	if err != nil {
		return err
	}
	return model.ErrTournamentFull
}
