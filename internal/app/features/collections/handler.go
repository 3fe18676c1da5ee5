// internal/app/features/collections/handler.go
package collections

import (
	"context"
	"net/http"
	"net/url"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/store/queries/itemrefs"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/mutation"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Membership is the part of the membership service the handler needs.
type Membership interface {
	ListItems(ctx context.Context, userID string, name models.CollectionName) ([]itemrefs.HydratedItem, error)
	ToggleFollow(ctx context.Context, actorID, targetID string, name models.CollectionName) (*mutation.Outcome, error)
}

// Handler serves other users' collections.
type Handler struct {
	Membership Membership
	ErrLog     *errorsfeature.ErrorLogger
	Log        *zap.Logger
}

// NewHandler constructs a collections Handler.
func NewHandler(m Membership, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Membership: m, ErrLog: errLog, Log: logger}
}

type itemsResponse struct {
	OwnerID        string                  `json:"owner_id"`
	CollectionName models.CollectionName   `json:"collection_name"`
	Items          []itemrefs.HydratedItem `json:"items"`
}

// params reads {userID} and {name}. Collection names may arrive escaped.
func params(r *http.Request) (string, models.CollectionName, error) {
	owner := chi.URLParam(r, "userID")
	raw, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		return "", "", apperr.Wrapf(apperr.InvalidOperation, "collections.params", err, "invalid collection name")
	}
	if owner == "" {
		return "", "", apperr.New(apperr.InvalidOperation, "collections.params", "user id is required")
	}
	return owner, models.CollectionName(raw), nil
}

// ServeItems handles GET /collections/{userID}/{name}/items.
func (h *Handler) ServeItems(w http.ResponseWriter, r *http.Request) {
	owner, name, err := params(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Membership.ListItems(ctx, owner, name)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, itemsResponse{OwnerID: owner, CollectionName: name, Items: items})
}

// HandleFollow handles POST /collections/{userID}/{name}/follow. It
// toggles: following again unfollows.
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	owner, name, err := params(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor := auth.CurrentSession(r).UserID
	out, err := h.Membership.ToggleFollow(ctx, actor, owner, name)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("collection follow toggled",
		zap.String("user_id", actor),
		zap.String("owner_id", owner),
		zap.String("collection", name.String()),
		zap.Bool("following", out.Active))
	httpjson.Write(w, http.StatusOK, out)
}
