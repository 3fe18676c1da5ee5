package coupletstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/paging"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no couplet has the given id.
var ErrNotFound = errors.New("couplet not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("couplets")}
}

// GetByID loads one couplet.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Couplet, error) {
	var c models.Couplet
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Page returns up to limit couplets ranked by intikhab_count after cursor.
func (s *Store) Page(ctx context.Context, cursor *paging.Cursor, limit int) (paging.Page[models.Couplet], error) {
	filter := bson.M{}
	if w := paging.Window(cursor); w != nil {
		filter = w
	}
	cur, err := s.c.Find(ctx, filter, paging.FindOptions(limit))
	if err != nil {
		return paging.Page[models.Couplet]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Couplet
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Couplet]{}, err
	}
	return paging.Build(rows, limit, Position), nil
}

// Position is a couplet's place in the ranked order.
func Position(c models.Couplet) paging.Cursor {
	return paging.Cursor{Count: c.IntikhabCount, ID: c.ID}
}

// Top returns the n most saved couplets.
func (s *Store) Top(ctx context.Context, n int) ([]models.Couplet, error) {
	p, err := s.Page(ctx, nil, n)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

// Upsert writes content fields for a seeded couplet. Counters are only
// initialised when the document is first inserted.
func (s *Store) Upsert(ctx context.Context, c models.Couplet) (inserted bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{
			"$set": bson.M{
				"content":   c.Content,
				"poet":      c.Poet,
				"ghazal_id": c.GhazalID,
			},
			"$setOnInsert": bson.M{
				"intikhab_count": int64(0),
				"saved_by":       bson.A{},
				"created_at":     time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
