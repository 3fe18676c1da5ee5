package devicestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/intikhab/internal/domain/models"
)

var (
	ErrEmptyToken  = errors.New("device token is required")
	errBadPlatform = errors.New(`platform must be "ios", "android" or "web"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("device_tokens")}
}

// Register points token at userID, replacing any earlier owner of the token.
func (s *Store) Register(ctx context.Context, userID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch platform {
	case "ios", "android", "web":
	default:
		return errBadPlatform
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": token},
		bson.M{"$set": bson.M{"user_id": userID, "platform": platform, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

// ListForUser returns the tokens registered to userID.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.DeviceToken{}
	for cur.Next(ctx) {
		var d models.DeviceToken
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, cur.Err()
}
