package membership

import (
	"context"

	"github.com/dalemusser/intikhab/internal/app/store/queries/itemrefs"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/domain/models"
)

// FollowedCollection is a collection the user follows.
type FollowedCollection struct {
	OwnerID        string                `json:"owner_id"`
	Username       string                `json:"username"`
	CollectionName models.CollectionName `json:"collection_name"`
}

// FollowedPoet is a poet the user follows.
type FollowedPoet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the signed-in user's own view.
type Profile struct {
	User                *models.User            `json:"user"`
	CollectionName      models.CollectionName   `json:"collection_name"`
	Items               []itemrefs.HydratedItem `json:"items"`
	FollowedCollections []FollowedCollection    `json:"followed_collections"`
	FollowedPoets       []FollowedPoet          `json:"followed_poets"`
}

// Profile loads userID's profile. Followed owners that no longer exist are
// dropped; followed poets without a document get a display name derived
// from the id.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	const op = "membership.Profile"
	if err := requireActor(op, userID); err != nil {
		return nil, err
	}
	u, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return nil, err
	}

	name, coll, _ := u.Primary()
	items, err := s.resolver.ResolveAll(ctx, coll.Items)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}

	owners, err := s.users.GetMany(ctx, u.FollowedIntikhab)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	followed := make([]FollowedCollection, 0, len(u.FollowedIntikhab))
	for _, id := range u.FollowedIntikhab {
		owner, ok := owners[id]
		if !ok {
			continue
		}
		followed = append(followed, FollowedCollection{
			OwnerID:        owner.ID,
			Username:       owner.Username,
			CollectionName: owner.PrimaryCollection,
		})
	}

	poets, err := s.poets.GetMany(ctx, u.FollowedPoets)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	fp := make([]FollowedPoet, 0, len(u.FollowedPoets))
	for _, id := range u.FollowedPoets {
		display := normalize.PoetDisplayName(id)
		if p, ok := poets[id]; ok && p.Name != "" {
			display = p.Name
		}
		fp = append(fp, FollowedPoet{ID: id, Name: display})
	}

	return &Profile{
		User:                u,
		CollectionName:      name,
		Items:               items,
		FollowedCollections: followed,
		FollowedPoets:       fp,
	}, nil
}
