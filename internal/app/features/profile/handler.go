// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/membership"
	"github.com/dalemusser/intikhab/internal/app/system/mutation"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Membership is the part of the membership service the handler needs.
type Membership interface {
	Profile(ctx context.Context, userID string) (*membership.Profile, error)
	PrimaryCollection(ctx context.Context, userID string) (models.CollectionName, error)
	AddItem(ctx context.Context, actorID string, name models.CollectionName, coupletID string) (*mutation.Outcome, error)
	RemoveItem(ctx context.Context, actorID string, name models.CollectionName, ref models.ItemRef) (*mutation.Outcome, error)
}

// Handler serves the signed-in user's own profile and collection.
type Handler struct {
	Membership Membership
	ErrLog     *errorsfeature.ErrorLogger
	Log        *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(m Membership, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Membership: m, ErrLog: errLog, Log: logger}
}

// ServeProfile handles GET /me.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Membership.Profile(ctx, auth.CurrentSession(r).UserID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

type addItemRequest struct {
	CoupletID string `json:"couplet_id"`
}

// HandleAddItem handles POST /me/collection/items.
func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID := auth.CurrentSession(r).UserID
	name, err := h.Membership.PrimaryCollection(ctx, userID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	out, err := h.Membership.AddItem(ctx, userID, name, req.CoupletID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if out.Changed {
		h.Log.Info("couplet saved",
			zap.String("user_id", userID),
			zap.String("couplet_id", req.CoupletID),
			zap.String("collection", name.String()))
	}
	httpjson.Write(w, http.StatusOK, out)
}

// HandleRemoveItem handles DELETE /me/collection/items/{coupletID}.
func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	coupletID := chi.URLParam(r, "coupletID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID := auth.CurrentSession(r).UserID
	name, err := h.Membership.PrimaryCollection(ctx, userID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	out, err := h.Membership.RemoveItem(ctx, userID, name, models.ItemRef{Type: models.ItemCouplet, ID: coupletID})
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if out.Changed {
		h.Log.Info("couplet removed",
			zap.String("user_id", userID),
			zap.String("couplet_id", coupletID),
			zap.String("collection", name.String()))
	}
	httpjson.Write(w, http.StatusOK, out)
}
