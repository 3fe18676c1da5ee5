// Package itemrefs hydrates collection item references into the documents
// they point at.
package itemrefs

import (
	"context"
	"errors"

	coupletstore "github.com/dalemusser/intikhab/internal/app/store/couplets"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds concurrent fetches per ResolveAll call.
const DefaultParallelism = 8

// HydratedItem is a reference together with the document it resolved to.
type HydratedItem struct {
	Ref     models.ItemRef  `json:"ref"`
	Couplet *models.Couplet `json:"couplet"`
}

// CoupletGetter loads one couplet; it returns coupletstore.ErrNotFound when
// the couplet does not exist.
type CoupletGetter interface {
	GetByID(ctx context.Context, id string) (*models.Couplet, error)
}

type Resolver struct {
	couplets    CoupletGetter
	log         *zap.Logger
	parallelism int
}

func New(couplets CoupletGetter, log *zap.Logger) *Resolver {
	return &Resolver{couplets: couplets, log: log, parallelism: DefaultParallelism}
}

// ResolveAll fetches every ref concurrently and returns the ones that
// resolved, in input order. References to deleted documents and of unknown
// types are dropped. Any other fetch error fails the call.
func (r *Resolver) ResolveAll(ctx context.Context, refs []models.ItemRef) ([]HydratedItem, error) {
	slots := make([]*models.Couplet, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, ref := range refs {
		if ref.Type != models.ItemCouplet {
			r.log.Warn("dropping item of unknown type",
				zap.String("type", string(ref.Type)), zap.String("id", ref.ID))
			continue
		}
		g.Go(func() error {
			c, err := r.couplets.GetByID(gctx, ref.ID)
			if errors.Is(err, coupletstore.ErrNotFound) {
				r.log.Debug("dropping reference to missing couplet", zap.String("couplet_id", ref.ID))
				return nil
			}
			if err != nil {
				return err
			}
			slots[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]HydratedItem, 0, len(refs))
	for i, c := range slots {
		if c != nil {
			out = append(out, HydratedItem{Ref: refs[i], Couplet: c})
		}
	}
	return out, nil
}
