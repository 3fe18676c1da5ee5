// Package countersync applies relationship changes (follow a collection,
// save a couplet, follow a poet) to both documents involved in one
// transaction, keeping the relationship arrays and their denormalized
// counters in step.
//
// Every change is idempotent: adding an existing relationship or removing an
// absent one succeeds without modifying anything. Counters are only moved
// together with the array they count and never drop below zero. When the
// transaction fails neither document is changed and the caller gets a
// SyncFailed error.
package countersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/txn"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Relation is the kind of relationship being changed.
type Relation int

const (
	// Follow links a user to another user's collection.
	Follow Relation = iota
	// Save puts a couplet into one of the actor's collections.
	Save
	// FollowPoet links a user to a poet profile.
	FollowPoet
)

func (r Relation) String() string {
	switch r {
	case Follow:
		return "follow"
	case Save:
		return "save"
	case FollowPoet:
		return "follow_poet"
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// Direction says whether the relationship is being created or removed.
type Direction int

const (
	Add Direction = iota
	Remove
)

func (d Direction) String() string {
	if d == Remove {
		return "remove"
	}
	return "add"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Add {
		return Remove
	}
	return Add
}

// Change describes one relationship change.
//
//	Follow:     TargetID is the collection owner, Collection the owner's collection.
//	Save:       TargetID is the couplet, Collection the actor's collection, Ref the item.
//	FollowPoet: TargetID is the poet.
type Change struct {
	Relation   Relation
	Direction  Direction
	ActorID    string
	TargetID   string
	Collection models.CollectionName
	Ref        models.ItemRef
}

// Result reports whether the change modified any document. A repeated
// change succeeds with Changed false.
type Result struct {
	Changed bool
}

var (
	errTargetMissing  = errors.New("target document does not exist")
	errSavedElsewhere = errors.New("item is already saved in another collection")
)

// Syncer applies Changes against the users, couplets and poets collections.
type Syncer struct {
	db       *mongo.Database
	users    *mongo.Collection
	couplets *mongo.Collection
	poets    *mongo.Collection
	log      *zap.Logger
	strict   bool
	now      func() time.Time
}

// New returns a Syncer. When strict is true the change is refused on
// deployments without transaction support instead of running unguarded.
func New(db *mongo.Database, log *zap.Logger, strict bool) *Syncer {
	return &Syncer{
		db:       db,
		users:    db.Collection("users"),
		couplets: db.Collection("couplets"),
		poets:    db.Collection("poets"),
		log:      log,
		strict:   strict,
		now:      time.Now,
	}
}

// Validate checks a change before any store call.
func Validate(c Change) error {
	const op = "countersync.Validate"
	if c.ActorID == "" || c.TargetID == "" {
		return apperr.New(apperr.InvalidOperation, op, "actor and target are required")
	}
	switch c.Relation {
	case Follow:
		if c.ActorID == c.TargetID {
			return apperr.New(apperr.InvalidOperation, op, "cannot follow your own collection")
		}
		if err := c.Collection.Validate(); err != nil {
			return apperr.Wrapf(apperr.InvalidOperation, op, err, "invalid collection name")
		}
	case Save:
		if err := c.Collection.Validate(); err != nil {
			return apperr.Wrapf(apperr.InvalidOperation, op, err, "invalid collection name")
		}
		if c.Ref.Type != models.ItemCouplet || c.Ref.ID != c.TargetID {
			return apperr.New(apperr.InvalidOperation, op, "item must reference the saved couplet")
		}
	case FollowPoet:
	default:
		return apperr.New(apperr.InvalidOperation, op, "unknown relation")
	}
	if c.Direction != Add && c.Direction != Remove {
		return apperr.New(apperr.InvalidOperation, op, "unknown direction")
	}
	return nil
}

// Apply performs c as one transaction.
func (s *Syncer) Apply(ctx context.Context, c Change) (Result, error) {
	const op = "countersync.Apply"
	if err := Validate(c); err != nil {
		return Result{}, err
	}

	var res Result
	body := func(ctx context.Context) error {
		// The body may be retried by the driver; start clean each time.
		res = Result{}
		changed, err := s.apply(ctx, c)
		res.Changed = changed
		return err
	}

	var err error
	if s.strict {
		err = txn.RunStrict(ctx, s.db, body)
	} else {
		err = txn.Run(ctx, s.db, s.log, body)
	}
	if err != nil {
		s.log.Warn("relationship change rejected",
			zap.Stringer("relation", c.Relation),
			zap.Stringer("direction", c.Direction),
			zap.String("actor_id", c.ActorID),
			zap.String("target_id", c.TargetID),
			zap.Error(err))
		if errors.Is(err, errTargetMissing) {
			return Result{}, apperr.Wrapf(apperr.SyncFailed, op, err, "the item no longer exists")
		}
		if errors.Is(err, errSavedElsewhere) {
			return Result{}, apperr.Wrapf(apperr.InvalidOperation, op, err, "the item is already in another collection")
		}
		return Result{}, apperr.Wrap(apperr.SyncFailed, op, err)
	}
	return res, nil
}

func (s *Syncer) apply(ctx context.Context, c Change) (bool, error) {
	switch c.Relation {
	case Follow:
		return s.follow(ctx, c)
	case Save:
		return s.save(ctx, c)
	default:
		return s.followPoet(ctx, c)
	}
}

// follow updates actor.followed_intikhab and owner.intikhab.<name>.followers
// together with owner.follower_count.
func (s *Syncer) follow(ctx context.Context, c Change) (bool, error) {
	followers := "intikhab." + string(c.Collection) + ".followers"

	if err := s.mustExist(ctx, s.users, bson.M{"_id": c.ActorID}); err != nil {
		return false, err
	}
	if err := s.mustExist(ctx, s.users, bson.M{"_id": c.TargetID, "intikhab." + string(c.Collection): bson.M{"$exists": true}}); err != nil {
		return false, err
	}

	now := s.now().UTC()
	if c.Direction == Add {
		a, err := s.users.UpdateOne(ctx,
			bson.M{"_id": c.ActorID, "followed_intikhab": bson.M{"$ne": c.TargetID}},
			bson.M{"$addToSet": bson.M{"followed_intikhab": c.TargetID}, "$set": bson.M{"updated_at": now}})
		if err != nil {
			return false, err
		}
		b, err := s.users.UpdateOne(ctx,
			bson.M{"_id": c.TargetID, followers: bson.M{"$ne": c.ActorID}},
			bson.M{"$addToSet": bson.M{followers: c.ActorID}, "$inc": bson.M{"follower_count": 1}})
		if err != nil {
			return false, err
		}
		return a.ModifiedCount > 0 || b.ModifiedCount > 0, nil
	}

	a, err := s.users.UpdateOne(ctx,
		bson.M{"_id": c.ActorID, "followed_intikhab": c.TargetID},
		bson.M{"$pull": bson.M{"followed_intikhab": c.TargetID}, "$set": bson.M{"updated_at": now}})
	if err != nil {
		return false, err
	}
	b, err := s.pullAndDecrement(ctx, s.users, c.TargetID, followers, "follower_count", c.ActorID)
	if err != nil {
		return false, err
	}
	return a.ModifiedCount > 0 || b, nil
}

// save updates actor.intikhab.<name>.items and couplet.saved_by together
// with couplet.intikhab_count. A couplet lives in at most one of the actor's
// collections; adding it to a second one fails with errSavedElsewhere.
func (s *Syncer) save(ctx context.Context, c Change) (bool, error) {
	items := "intikhab." + string(c.Collection) + ".items"

	var owner struct {
		Intikhab map[models.CollectionName]models.Collection `bson:"intikhab"`
	}
	err := s.users.FindOne(ctx,
		bson.M{"_id": c.ActorID, "intikhab." + string(c.Collection): bson.M{"$exists": true}},
		options.FindOne().SetProjection(bson.M{"intikhab": 1})).Decode(&owner)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, fmt.Errorf("users %v: %w", c.ActorID, errTargetMissing)
	}
	if err != nil {
		return false, err
	}
	if c.Direction == Add {
		for name, coll := range owner.Intikhab {
			if name == c.Collection {
				continue
			}
			for _, ref := range coll.Items {
				if ref.SameTarget(c.Ref) {
					return false, fmt.Errorf("%s: %w", name, errSavedElsewhere)
				}
			}
		}
	}
	if err := s.mustExist(ctx, s.couplets, bson.M{"_id": c.TargetID}); err != nil {
		return false, err
	}

	now := s.now().UTC()
	match := bson.M{"type": c.Ref.Type, "id": c.Ref.ID}

	if c.Direction == Add {
		a, err := s.users.UpdateOne(ctx,
			bson.M{"_id": c.ActorID, items: bson.M{"$not": bson.M{"$elemMatch": match}}},
			bson.M{"$push": bson.M{items: c.Ref}, "$set": bson.M{"updated_at": now}})
		if err != nil {
			return false, err
		}
		b, err := s.couplets.UpdateOne(ctx,
			bson.M{"_id": c.TargetID, "saved_by": bson.M{"$ne": c.ActorID}},
			bson.M{"$addToSet": bson.M{"saved_by": c.ActorID}, "$inc": bson.M{"intikhab_count": 1}})
		if err != nil {
			return false, err
		}
		return a.ModifiedCount > 0 || b.ModifiedCount > 0, nil
	}

	a, err := s.users.UpdateOne(ctx,
		bson.M{"_id": c.ActorID, items: bson.M{"$elemMatch": match}},
		bson.M{"$pull": bson.M{items: match}, "$set": bson.M{"updated_at": now}})
	if err != nil {
		return false, err
	}
	b, err := s.pullAndDecrement(ctx, s.couplets, c.TargetID, "saved_by", "intikhab_count", c.ActorID)
	if err != nil {
		return false, err
	}
	return a.ModifiedCount > 0 || b, nil
}

// followPoet updates actor.followed_poets and poet.followers together with
// poet.follower_count.
func (s *Syncer) followPoet(ctx context.Context, c Change) (bool, error) {
	if err := s.mustExist(ctx, s.users, bson.M{"_id": c.ActorID}); err != nil {
		return false, err
	}
	if err := s.mustExist(ctx, s.poets, bson.M{"_id": c.TargetID}); err != nil {
		return false, err
	}

	now := s.now().UTC()
	if c.Direction == Add {
		a, err := s.users.UpdateOne(ctx,
			bson.M{"_id": c.ActorID, "followed_poets": bson.M{"$ne": c.TargetID}},
			bson.M{"$addToSet": bson.M{"followed_poets": c.TargetID}, "$set": bson.M{"updated_at": now}})
		if err != nil {
			return false, err
		}
		b, err := s.poets.UpdateOne(ctx,
			bson.M{"_id": c.TargetID, "followers": bson.M{"$ne": c.ActorID}},
			bson.M{"$addToSet": bson.M{"followers": c.ActorID}, "$inc": bson.M{"follower_count": 1}})
		if err != nil {
			return false, err
		}
		return a.ModifiedCount > 0 || b.ModifiedCount > 0, nil
	}

	a, err := s.users.UpdateOne(ctx,
		bson.M{"_id": c.ActorID, "followed_poets": c.TargetID},
		bson.M{"$pull": bson.M{"followed_poets": c.TargetID}, "$set": bson.M{"updated_at": now}})
	if err != nil {
		return false, err
	}
	b, err := s.pullAndDecrement(ctx, s.poets, c.TargetID, "followers", "follower_count", c.ActorID)
	if err != nil {
		return false, err
	}
	return a.ModifiedCount > 0 || b, nil
}

// pullAndDecrement removes member from arrayField and decrements
// counterField, but only when member was present and the counter is
// positive. A present member with a zero counter is still removed.
func (s *Syncer) pullAndDecrement(ctx context.Context, coll *mongo.Collection, id, arrayField, counterField, member string) (bool, error) {
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, arrayField: member, counterField: bson.M{"$gt": 0}},
		bson.M{"$pull": bson.M{arrayField: member}, "$inc": bson.M{counterField: -1}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	res, err = coll.UpdateOne(ctx,
		bson.M{"_id": id, arrayField: member},
		bson.M{"$pull": bson.M{arrayField: member}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		s.log.Warn("counter already zero while removing member",
			zap.String("collection", coll.Name()),
			zap.String("id", id),
			zap.String("counter", counterField))
		return true, nil
	}
	return false, nil
}

func (s *Syncer) mustExist(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	err := coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %v: %w", coll.Name(), filter["_id"], errTargetMissing)
	}
	return err
}
