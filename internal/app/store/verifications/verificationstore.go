package verificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no request has the given id.
	ErrNotFound = errors.New("verification request not found")
	// ErrAlreadyDecided is returned when a decision targets a request that
	// is no longer pending.
	ErrAlreadyDecided = errors.New("verification request already decided")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("poet_verification_requests")}
}

// Create inserts a new request. The caller sets ID, status and timestamps.
func (s *Store) Create(ctx context.Context, req models.PoetVerificationRequest) error {
	_, err := s.c.InsertOne(ctx, req)
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.PoetVerificationRequest, error) {
	var r models.PoetVerificationRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// HasPending reports whether userID has a request awaiting a decision.
func (s *Store) HasPending(ctx context.Context, userID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"user_id": userID, "status": models.VerificationPending},
		options.Count().SetLimit(1))
	return n > 0, err
}

// ListPending returns pending requests, newest first.
func (s *Store) ListPending(ctx context.Context, limit int) ([]models.PoetVerificationRequest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, bson.M{"status": models.VerificationPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PoetVerificationRequest{}
	for cur.Next(ctx) {
		var r models.PoetVerificationRequest
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

// Decide moves a pending request to status. Only pending requests match, so
// two admins deciding at once cannot both succeed.
func (s *Store) Decide(ctx context.Context, id string, status models.VerificationStatus, by string, at time.Time) error {
	if !models.VerificationPending.CanBecome(status) {
		return ErrAlreadyDecided
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.VerificationPending},
		bson.M{"$set": bson.M{"status": status, "decided_at": at, "decided_by": by}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyDecided
}
