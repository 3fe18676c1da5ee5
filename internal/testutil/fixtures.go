package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a curator with an empty default collection.
func (f *Fixtures) CreateUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	name := models.DefaultCollectionName(username)
	u := models.User{
		ID:                uuid.NewString(),
		Username:          username,
		UsernameCI:        text.Fold(username),
		Email:             username + "@example.com",
		AccountType:       models.AccountCurator,
		PrimaryCollection: name,
		Intikhab:          map[models.CollectionName]models.Collection{name: models.NewCollection()},
		FollowedIntikhab:  []string{},
		FollowedPoets:     []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCouplet inserts a couplet with no saves.
func (f *Fixtures) CreateCouplet(ctx context.Context, content, poet, ghazalID string) models.Couplet {
	f.t.Helper()
	return f.CreateCoupletWithCount(ctx, content, poet, ghazalID, 0)
}

// CreateCoupletWithCount inserts a couplet whose counter starts at count with
// an empty saved_by list. Used for ranking tests only; it deliberately does
// not satisfy count == len(saved_by).
func (f *Fixtures) CreateCoupletWithCount(ctx context.Context, content, poet, ghazalID string, count int64) models.Couplet {
	f.t.Helper()

	c := models.Couplet{
		ID:            uuid.NewString(),
		Content:       content,
		Poet:          poet,
		GhazalID:      ghazalID,
		IntikhabCount: count,
		SavedBy:       []string{},
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("couplets").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test couplet: %v", err)
	}
	return c
}

// CreateGhazal inserts a ghazal.
func (f *Fixtures) CreateGhazal(ctx context.Context, title, poet string) models.Ghazal {
	f.t.Helper()

	g := models.Ghazal{
		ID:        uuid.NewString(),
		Title:     title,
		Poet:      poet,
		Content:   title + "\nline two",
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("ghazals").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test ghazal: %v", err)
	}
	return g
}

// CreatePoet inserts a poet profile with no followers.
func (f *Fixtures) CreatePoet(ctx context.Context, id, name string) models.Poet {
	f.t.Helper()

	p := models.Poet{
		ID:        id,
		Name:      name,
		Bio:       name + " bio",
		Verified:  true,
		Followers: []string{},
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("poets").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test poet: %v", err)
	}
	return p
}
