// internal/domain/models/user.go
package models

import (
	"errors"
	"time"
)

// AccountType distinguishes curators from verified poets.
type AccountType string

const (
	AccountCurator AccountType = "curator"
	AccountPoet    AccountType = "poet"
)

// ErrNonConformingUser is returned when a stored user document cannot be
// brought into the current shape (bad collection names, or several
// collections and no recorded primary).
var ErrNonConformingUser = errors.New("user document does not conform to the collection schema")

// User is the profile document for a signed-up account.
//
// NOTE:
//   - ID is the identity provider's uid (a string, not an ObjectID).
//   - Intikhab holds the user's named collections. Exactly one is created at
//     sign-up and its name is recorded in PrimaryCollection; nothing should
//     infer the primary collection from map order.
//   - Only the Followers field of a Collection is written by other users.
type User struct {
	ID                string                        `bson:"_id" json:"id"`
	Username          string                        `bson:"username" json:"username"`
	UsernameCI        string                        `bson:"username_ci" json:"-"`
	Email             string                        `bson:"email" json:"email"`
	AccountType       AccountType                   `bson:"account_type" json:"account_type"`
	PrimaryCollection CollectionName                `bson:"primary_collection" json:"primary_collection"`
	Intikhab          map[CollectionName]Collection `bson:"intikhab" json:"intikhab"`
	FollowedIntikhab  []string                      `bson:"followed_intikhab" json:"followed_intikhab"` // owner user IDs
	FollowedPoets     []string                      `bson:"followed_poets" json:"followed_poets"`       // poet IDs
	FollowerCount     int64                         `bson:"follower_count" json:"follower_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Collection returns the named collection and whether it exists.
func (u *User) Collection(name CollectionName) (Collection, bool) {
	c, ok := u.Intikhab[name]
	return c, ok
}

// Primary returns the primary collection's name and contents.
func (u *User) Primary() (CollectionName, Collection, bool) {
	c, ok := u.Intikhab[u.PrimaryCollection]
	return u.PrimaryCollection, c, ok
}

// FollowsCollectionsOf reports whether u follows ownerID's collection.
func (u *User) FollowsCollectionsOf(ownerID string) bool {
	return containsString(u.FollowedIntikhab, ownerID)
}

// FollowsPoet reports whether u follows the poet.
func (u *User) FollowsPoet(poetID string) bool {
	return containsString(u.FollowedPoets, poetID)
}

// Conform validates the collection map and migrates documents written before
// primary_collection existed. It reports whether the document was changed so
// the caller can persist the migration.
func (u *User) Conform() (migrated bool, err error) {
	for name := range u.Intikhab {
		if err := name.Validate(); err != nil {
			return false, ErrNonConformingUser
		}
	}
	if u.PrimaryCollection != "" {
		if _, ok := u.Intikhab[u.PrimaryCollection]; !ok {
			return false, ErrNonConformingUser
		}
		return false, nil
	}
	if len(u.Intikhab) != 1 {
		return false, ErrNonConformingUser
	}
	for name := range u.Intikhab {
		u.PrimaryCollection = name
	}
	if u.AccountType == "" {
		u.AccountType = AccountCurator
	}
	return true, nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
