// internal/app/features/feed/handler.go
package feed

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	feedsession "github.com/dalemusser/intikhab/internal/app/system/feed"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/paging"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Couplets pages the ranked couplet feed.
type Couplets interface {
	Page(ctx context.Context, cursor *paging.Cursor, limit int) (paging.Page[models.Couplet], error)
}

// Handler serves the couplet feed, both stateless (cursor in the request)
// and per-user (cursor held by the server).
type Handler struct {
	Couplets Couplets
	Codec    *paging.Codec
	Feeds    *feedsession.Registry[models.Couplet]
	PageSize int
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs a feed Handler.
func NewHandler(couplets Couplets, codec *paging.Codec, feeds *feedsession.Registry[models.Couplet], pageSize int, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Couplets: couplets,
		Codec:    codec,
		Feeds:    feeds,
		PageSize: pageSize,
		ErrLog:   errLog,
		Log:      logger,
	}
}

type pageResponse struct {
	Items      []models.Couplet `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	Exhausted  bool             `json:"exhausted"`
}

// ServePage handles GET /feed/couplets?cursor=&limit=.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	const op = "feed.ServePage"
	cursor, err := h.Codec.Decode(query.Get(r, "cursor"))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrapf(apperr.InvalidOperation, op, err, "invalid cursor"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Couplets.Page(ctx, cursor, paging.ParseLimit(r, h.PageSize))
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}

	resp := pageResponse{Items: page.Items, Exhausted: page.Exhausted}
	if !page.Exhausted {
		if resp.NextCursor, err = h.Codec.Encode(page.NextCursor); err != nil {
			h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
			return
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

// HandleNext handles POST /feed/couplets/next: the next page of the
// caller's own feed.
func (h *Handler) HandleNext(w http.ResponseWriter, r *http.Request) {
	const op = "feed.HandleNext"
	userID := auth.CurrentSession(r).UserID

	page, err := h.Feeds.Get(userID).Next(r.Context())
	if errors.Is(err, feedsession.ErrClosed) {
		// Evicted between Get and Next; the registry hands out a fresh feed.
		page, err = h.Feeds.Get(userID).Next(r.Context())
	}
	switch {
	case err == nil:
	case errors.Is(err, feedsession.ErrDiscarded):
		h.ErrLog.Respond(w, r, apperr.Wrapf(apperr.SyncFailed, op, err, "feed was reset; request the next page again"))
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.Log.Debug("feed request ended before the page arrived", zap.String("user_id", userID), zap.Error(err))
		return
	default:
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}
	httpjson.Write(w, http.StatusOK, pageResponse{Items: page.Items, Exhausted: page.Exhausted})
}

// HandleReset handles POST /feed/couplets/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.Feeds.Get(auth.CurrentSession(r).UserID).Reset()
	w.WriteHeader(http.StatusNoContent)
}
