// internal/app/features/discover/handler.go
package discover

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/store/queries/trending"
	userstore "github.com/dalemusser/intikhab/internal/app/store/users"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TrendingLimit is how many collections and couplets discover shows.
const TrendingLimit = 5

type Handler struct {
	DB     *mongo.Database
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, ErrLog: errLog, Log: logger}
}

type collectionRow struct {
	OwnerID        string                `json:"owner_id"`
	Username       string                `json:"username"`
	CollectionName models.CollectionName `json:"collection_name"`
	FollowerCount  int64                 `json:"follower_count"`
	ItemCount      int                   `json:"item_count"`
}

// ServeCollections handles GET /discover/collections: public collections
// ranked by follower count.
func (h *Handler) ServeCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := userstore.New(h.DB, h.Log).TrendingPublic(ctx, TrendingLimit)
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, "discover.ServeCollections", err))
		return
	}

	rows := make([]collectionRow, 0, len(users))
	for _, u := range users {
		name, coll, _ := u.Primary()
		rows = append(rows, collectionRow{
			OwnerID:        u.ID,
			Username:       u.Username,
			CollectionName: name,
			FollowerCount:  u.FollowerCount,
			ItemCount:      len(coll.Items),
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"collections": rows})
}

// ServeCouplets handles GET /discover/couplets: the most saved couplets
// with their ghazal's title and poet.
func (h *Handler) ServeCouplets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := trending.TopCouplets(ctx, h.DB, TrendingLimit)
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, "discover.ServeCouplets", err))
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"couplets": rows})
}
