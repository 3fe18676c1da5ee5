package credentialstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("credential not found")
	// ErrDuplicateEmail is returned when the email already has a credential.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("credentials")}
}

// Create inserts cred with a normalized email.
func (s *Store) Create(ctx context.Context, cred models.Credential) (models.Credential, error) {
	cred.Email = normalize.Email(cred.Email)
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.LastSignInAt = now
	if _, err := s.c.InsertOne(ctx, cred); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Credential{}, ErrDuplicateEmail
		}
		return models.Credential{}, err
	}
	return cred, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

func (s *Store) GetByGoogleSubject(ctx context.Context, sub string) (*models.Credential, error) {
	return s.findOne(ctx, bson.M{"google_subject": sub})
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Credential, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Credential, error) {
	var c models.Credential
	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// LinkGoogle attaches a Google subject to an existing credential.
func (s *Store) LinkGoogle(ctx context.Context, id, sub string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"google_subject": sub}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchSignIn records a successful sign-in.
func (s *Store) TouchSignIn(ctx context.Context, id string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_sign_in_at": time.Now().UTC()}})
	return err
}
