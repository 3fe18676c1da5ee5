// Package membership implements the named-collection ("Intikhab")
// operations: listing items, saving and removing couplets, following
// collections and poets, and creating a user's default collection.
//
// Every mutating call goes through countersync so the relationship and its
// denormalized counter move together, and reports a mutation.Outcome.
package membership

import (
	"context"
	"errors"

	coupletstore "github.com/dalemusser/intikhab/internal/app/store/couplets"
	poetstore "github.com/dalemusser/intikhab/internal/app/store/poets"
	"github.com/dalemusser/intikhab/internal/app/store/queries/itemrefs"
	userstore "github.com/dalemusser/intikhab/internal/app/store/users"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/countersync"
	"github.com/dalemusser/intikhab/internal/app/system/mutation"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.uber.org/zap"
)

// Users is the part of the user store the service needs.
type Users interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.User, error)
	CreateDefault(ctx context.Context, id, email, username string) (bool, error)
}

// Couplets loads couplets by id.
type Couplets interface {
	GetByID(ctx context.Context, id string) (*models.Couplet, error)
}

// Poets loads poets by id.
type Poets interface {
	GetByID(ctx context.Context, id string) (*models.Poet, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Poet, error)
}

// Syncer applies relationship changes atomically.
type Syncer interface {
	Apply(ctx context.Context, c countersync.Change) (countersync.Result, error)
}

// Resolver hydrates item references.
type Resolver interface {
	ResolveAll(ctx context.Context, refs []models.ItemRef) ([]itemrefs.HydratedItem, error)
}

// Service is the collection membership service.
type Service struct {
	users    Users
	couplets Couplets
	poets    Poets
	sync     Syncer
	resolver Resolver
	log      *zap.Logger
}

// New returns a Service.
func New(users Users, couplets Couplets, poets Poets, sync Syncer, resolver Resolver, log *zap.Logger) *Service {
	return &Service{
		users:    users,
		couplets: couplets,
		poets:    poets,
		sync:     sync,
		resolver: resolver,
		log:      log,
	}
}

// loadUser maps store errors onto apperr kinds.
func (s *Service) loadUser(ctx context.Context, op, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, userstore.ErrNotFound):
		return nil, apperr.Wrapf(apperr.NotFound, op, err, "user not found")
	case errors.Is(err, models.ErrNonConformingUser):
		s.log.Error("user document does not conform", zap.String("user_id", id), zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, op, err)
	default:
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
}

func requireActor(op, actorID string) error {
	if actorID == "" {
		return apperr.New(apperr.Unauthenticated, op, "sign in to continue")
	}
	return nil
}

// PrimaryCollection returns the name of userID's primary collection.
func (s *Service) PrimaryCollection(ctx context.Context, userID string) (models.CollectionName, error) {
	const op = "membership.PrimaryCollection"
	if err := requireActor(op, userID); err != nil {
		return "", err
	}
	u, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return "", err
	}
	return u.PrimaryCollection, nil
}

// ListItems returns the hydrated items of userID's collection name in
// insertion order. Items whose couplet no longer exists are dropped.
func (s *Service) ListItems(ctx context.Context, userID string, name models.CollectionName) ([]itemrefs.HydratedItem, error) {
	const op = "membership.ListItems"
	if err := name.Validate(); err != nil {
		return nil, apperr.Wrapf(apperr.InvalidOperation, op, err, "invalid collection name")
	}
	u, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	coll, ok := u.Collection(name)
	if !ok {
		return nil, apperr.New(apperr.NotFound, op, "collection not found")
	}
	items, err := s.resolver.ResolveAll(ctx, coll.Items)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return items, nil
}

// AddItem saves a couplet into actorID's collection. Adding a couplet that
// is already present commits with Changed false.
func (s *Service) AddItem(ctx context.Context, actorID string, name models.CollectionName, coupletID string) (*mutation.Outcome, error) {
	const op = "membership.AddItem"
	if err := requireActor(op, actorID); err != nil {
		return nil, err
	}
	if coupletID == "" {
		return nil, apperr.New(apperr.InvalidOperation, op, "couplet id is required")
	}

	c, err := s.couplets.GetByID(ctx, coupletID)
	if errors.Is(err, coupletstore.ErrNotFound) {
		return nil, apperr.Wrapf(apperr.NotFound, op, err, "couplet not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}

	change := countersync.Change{
		Relation:   countersync.Save,
		Direction:  countersync.Add,
		ActorID:    actorID,
		TargetID:   c.ID,
		Collection: name,
		Ref:        models.ItemRef{Type: models.ItemCouplet, ID: c.ID, Poet: c.Poet},
	}
	return s.apply(ctx, op, change, true)
}

// RemoveItem removes a couplet from actorID's collection.
func (s *Service) RemoveItem(ctx context.Context, actorID string, name models.CollectionName, ref models.ItemRef) (*mutation.Outcome, error) {
	const op = "membership.RemoveItem"
	if err := requireActor(op, actorID); err != nil {
		return nil, err
	}
	if ref.Type == "" {
		ref.Type = models.ItemCouplet
	}
	change := countersync.Change{
		Relation:   countersync.Save,
		Direction:  countersync.Remove,
		ActorID:    actorID,
		TargetID:   ref.ID,
		Collection: name,
		Ref:        ref,
	}
	return s.apply(ctx, op, change, false)
}

// ToggleFollow flips whether actorID follows targetID's collection name.
// The current state is read from the target's followers list.
func (s *Service) ToggleFollow(ctx context.Context, actorID, targetID string, name models.CollectionName) (*mutation.Outcome, error) {
	const op = "membership.ToggleFollow"
	if err := requireActor(op, actorID); err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, apperr.New(apperr.InvalidOperation, op, "cannot follow your own collection")
	}
	if err := name.Validate(); err != nil {
		return nil, apperr.Wrapf(apperr.InvalidOperation, op, err, "invalid collection name")
	}

	target, err := s.loadUser(ctx, op, targetID)
	if err != nil {
		return nil, err
	}
	coll, ok := target.Collection(name)
	if !ok {
		return nil, apperr.New(apperr.NotFound, op, "collection not found")
	}

	dir := countersync.Add
	if coll.HasFollower(actorID) {
		dir = countersync.Remove
	}
	change := countersync.Change{
		Relation:   countersync.Follow,
		Direction:  dir,
		ActorID:    actorID,
		TargetID:   targetID,
		Collection: name,
	}
	return s.apply(ctx, op, change, dir == countersync.Add)
}

// ToggleFollowPoet flips whether actorID follows poetID.
func (s *Service) ToggleFollowPoet(ctx context.Context, actorID, poetID string) (*mutation.Outcome, error) {
	const op = "membership.ToggleFollowPoet"
	if err := requireActor(op, actorID); err != nil {
		return nil, err
	}
	p, err := s.poets.GetByID(ctx, poetID)
	if errors.Is(err, poetstore.ErrNotFound) {
		return nil, apperr.Wrapf(apperr.NotFound, op, err, "poet not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}

	dir := countersync.Add
	for _, f := range p.Followers {
		if f == actorID {
			dir = countersync.Remove
			break
		}
	}
	change := countersync.Change{
		Relation:  countersync.FollowPoet,
		Direction: dir,
		ActorID:   actorID,
		TargetID:  p.ID,
	}
	return s.apply(ctx, op, change, dir == countersync.Add)
}

// apply runs change and settles an Outcome. Validation errors are returned
// without an Outcome since nothing was attempted.
func (s *Service) apply(ctx context.Context, op string, change countersync.Change, active bool) (*mutation.Outcome, error) {
	if err := countersync.Validate(change); err != nil {
		return nil, err
	}
	out := mutation.Begin(op)
	res, err := s.sync.Apply(ctx, change)
	if err != nil {
		_ = out.Fail(err, apperr.Message(err))
		return out, err
	}
	_ = out.Commit(res.Changed, active)
	return out, nil
}

// CreateDefaultCollection creates the user document with its single
// "Intikhab-e-<username>" collection. It succeeds without changes when the
// user already exists.
func (s *Service) CreateDefaultCollection(ctx context.Context, userID, email, username string) (bool, error) {
	const op = "membership.CreateDefaultCollection"
	if userID == "" || username == "" {
		return false, apperr.New(apperr.InvalidOperation, op, "user id and username are required")
	}
	created, err := s.users.CreateDefault(ctx, userID, email, username)
	if errors.Is(err, userstore.ErrUsernameTaken) {
		return false, apperr.Wrapf(apperr.InvalidOperation, op, err, "username is already taken")
	}
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, op, err)
	}
	if created {
		s.log.Info("default collection created",
			zap.String("user_id", userID),
			zap.String("collection", string(models.DefaultCollectionName(username))))
	}
	return created, nil
}
