package poetstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no poet profile has the given id.
var ErrNotFound = errors.New("poet not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("poets")}
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Poet, error) {
	var p models.Poet
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetMany loads poets keyed by id; missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.Poet, error) {
	out := make(map[string]models.Poet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Poet
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, cur.Err()
}

// Upsert writes a seeded poet profile. Followers are only initialised on
// insert.
func (s *Store) Upsert(ctx context.Context, p models.Poet) (inserted bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{
			"$set": bson.M{"name": p.Name, "bio": p.Bio, "verified": p.Verified},
			"$setOnInsert": bson.M{
				"followers":      bson.A{},
				"follower_count": int64(0),
				"created_at":     time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// EnsureForUser creates a verified poet profile for an approved user if
// none exists yet.
func (s *Store) EnsureForUser(ctx context.Context, userID, name, bio string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set": bson.M{"verified": true},
			"$setOnInsert": bson.M{
				"name":           name,
				"bio":            bio,
				"followers":      bson.A{},
				"follower_count": int64(0),
				"created_at":     time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true))
	return err
}
