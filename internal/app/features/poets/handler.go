// internal/app/features/poets/handler.go
package poets

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	poetstore "github.com/dalemusser/intikhab/internal/app/store/poets"
	userstore "github.com/dalemusser/intikhab/internal/app/store/users"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/mutation"
	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GhazalLimit is how many ghazals a poet page lists.
const GhazalLimit = 10

// FallbackBio is shown for poets without a stored bio.
const FallbackBio = "اس شاعر کا تعارف دستیاب نہیں ہے۔"

type Poets interface {
	GetByID(ctx context.Context, id string) (*models.Poet, error)
}

type Ghazals interface {
	ListByPoet(ctx context.Context, poet string, limit int) ([]models.Ghazal, error)
}

type Users interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Follower toggles poet follows.
type Follower interface {
	ToggleFollowPoet(ctx context.Context, actorID, poetID string) (*mutation.Outcome, error)
}

type Handler struct {
	Poets    Poets
	Ghazals  Ghazals
	Users    Users
	Follower Follower
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(poets Poets, ghazals Ghazals, users Users, follower Follower, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Poets:    poets,
		Ghazals:  ghazals,
		Users:    users,
		Follower: follower,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type poetResponse struct {
	Poet      models.Poet     `json:"poet"`
	Ghazals   []models.Ghazal `json:"ghazals"`
	Following bool            `json:"following"`
}

// ServePoet handles GET /poets/{poetID}. Poets without a document still get
// a page: the name is derived from the id and the bio is FallbackBio.
func (h *Handler) ServePoet(w http.ResponseWriter, r *http.Request) {
	const op = "poets.ServePoet"
	poetID := chi.URLParam(r, "poetID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Poets.GetByID(ctx, poetID)
	switch {
	case errors.Is(err, poetstore.ErrNotFound):
		p = &models.Poet{ID: poetID}
	case err != nil:
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}
	if p.Name == "" {
		p.Name = normalize.PoetDisplayName(poetID)
	}
	if p.Bio == "" {
		p.Bio = FallbackBio
	}

	ghazals, err := h.Ghazals.ListByPoet(ctx, poetID, GhazalLimit)
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}

	resp := poetResponse{Poet: *p, Ghazals: ghazals}
	if s := auth.CurrentSession(r); s.SignedIn() {
		u, err := h.Users.GetByID(ctx, s.UserID)
		switch {
		case err == nil:
			resp.Following = u.FollowsPoet(poetID)
		case errors.Is(err, userstore.ErrNotFound):
		default:
			h.Log.Warn("failed to load caller for poet page", zap.String("user_id", s.UserID), zap.Error(err))
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

// HandleFollow handles POST /poets/{poetID}/follow. It toggles.
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	poetID := chi.URLParam(r, "poetID")
	userID := auth.CurrentSession(r).UserID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Follower.ToggleFollowPoet(ctx, userID, poetID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Info("poet follow toggled",
		zap.String("user_id", userID),
		zap.String("poet_id", poetID),
		zap.Bool("following", out.Active))
	httpjson.Write(w, http.StatusOK, out)
}
