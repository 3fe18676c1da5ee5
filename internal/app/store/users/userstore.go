package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no user has the given id.
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when another user already has the username.
	ErrUsernameTaken = errors.New("username is already taken")
)

type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{c: db.Collection("users"), log: log}
}

// GetByID loads a user and brings legacy documents into shape. A document
// written before primary_collection existed is migrated and saved back; one
// that cannot be migrated returns models.ErrNonConformingUser.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.conform(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) conform(ctx context.Context, u *models.User) error {
	migrated, err := u.Conform()
	if err != nil {
		s.log.Warn("user document does not conform", zap.String("user_id", u.ID), zap.Error(err))
		return err
	}
	if !migrated {
		return nil
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": u.ID, "$or": bson.A{
			bson.M{"primary_collection": bson.M{"$exists": false}},
			bson.M{"primary_collection": ""},
		}},
		bson.M{"$set": bson.M{
			"primary_collection": u.PrimaryCollection,
			"account_type":       u.AccountType,
		}})
	if err != nil {
		// The in-memory copy is already migrated; the write is retried on the
		// next read.
		s.log.Warn("failed to persist primary collection migration", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		s.log.Info("migrated legacy user document", zap.String("user_id", u.ID),
			zap.String("collection", string(u.PrimaryCollection)))
	}
	return nil
}

// GetMany loads the users with the given ids, keyed by id. Missing ids and
// non-conforming documents are left out.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		if err := s.conform(ctx, &u); err != nil {
			continue
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// Exists reports whether a user document exists for id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// UsernameTaken reports whether username (compared case-insensitively) is
// in use.
func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"username_ci": text.Fold(username)}, options.Count().SetLimit(1))
	return n > 0, err
}

// CreateDefault inserts the profile document for a new account with a
// single empty collection named after the username. It reports false
// without error when a document for id already exists.
func (s *Store) CreateDefault(ctx context.Context, id, email, username string) (bool, error) {
	if exists, err := s.Exists(ctx, id); err != nil || exists {
		return false, err
	}

	name := models.DefaultCollectionName(username)
	if err := name.Validate(); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	u := models.User{
		ID:                id,
		Username:          username,
		UsernameCI:        text.Fold(username),
		Email:             email,
		AccountType:       models.AccountCurator,
		PrimaryCollection: name,
		Intikhab:          map[models.CollectionName]models.Collection{name: models.NewCollection()},
		FollowedIntikhab:  []string{},
		FollowedPoets:     []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			// Lost a race with another bootstrap for the same id, or the
			// username index rejected it.
			if exists, _ := s.Exists(ctx, id); exists {
				return false, nil
			}
			return false, ErrUsernameTaken
		}
		return false, err
	}
	return true, nil
}

// SetAccountType changes the account type.
func (s *Store) SetAccountType(ctx context.Context, id string, t models.AccountType) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"account_type": t, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TrendingPublic returns up to limit users ranked by follower_count whose
// primary collection is public.
func (s *Store) TrendingPublic(ctx context.Context, limit int) ([]models.User, error) {
	// Visibility lives under a per-user key, so over-fetch and filter here.
	opts := options.Find().
		SetSort(bson.D{{Key: "follower_count", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit * 4))
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.User, 0, limit)
	for cur.Next(ctx) && len(out) < limit {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		if err := s.conform(ctx, &u); err != nil {
			continue
		}
		if _, c, ok := u.Primary(); ok && c.IsPublic {
			out = append(out, u)
		}
	}
	return out, cur.Err()
}
