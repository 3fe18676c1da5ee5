package ghazalstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no ghazal has the given id.
var ErrNotFound = errors.New("ghazal not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ghazals")}
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Ghazal, error) {
	var g models.Ghazal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// GetMany loads ghazals keyed by id; missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.Ghazal, error) {
	out := make(map[string]models.Ghazal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var g models.Ghazal
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out[g.ID] = g
	}
	return out, cur.Err()
}

// ListByPoet returns up to limit ghazals by poet, most saved first.
func (s *Store) ListByPoet(ctx context.Context, poet string, limit int) ([]models.Ghazal, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "intikhab_count", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, bson.M{"poet": poet}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Ghazal{}
	for cur.Next(ctx) {
		var g models.Ghazal
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, cur.Err()
}

// Upsert writes a seeded ghazal, leaving intikhab_count alone on update.
func (s *Store) Upsert(ctx context.Context, g models.Ghazal) (inserted bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": g.ID},
		bson.M{
			"$set": bson.M{"title": g.Title, "poet": g.Poet, "content": g.Content},
			"$setOnInsert": bson.M{
				"intikhab_count": int64(0),
				"created_at":     time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
