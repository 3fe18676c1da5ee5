// internal/app/features/ghazals/handler.go
package ghazals

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	ghazalstore "github.com/dalemusser/intikhab/internal/app/store/ghazals"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/normalize"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Ghazals interface {
	GetByID(ctx context.Context, id string) (*models.Ghazal, error)
}

type Handler struct {
	Ghazals Ghazals
	ErrLog  *errorsfeature.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(ghazals Ghazals, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Ghazals: ghazals, ErrLog: errLog, Log: logger}
}

type ghazalResponse struct {
	models.Ghazal
	PoetName string   `json:"poet_name"`
	Lines    []string `json:"lines"`
}

// ServeGhazal handles GET /ghazals/{ghazalID}.
func (h *Handler) ServeGhazal(w http.ResponseWriter, r *http.Request) {
	const op = "ghazals.ServeGhazal"
	id := chi.URLParam(r, "ghazalID")
	if id == "" {
		h.ErrLog.Respond(w, r, apperr.New(apperr.InvalidOperation, op, "ghazal id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Ghazals.GetByID(ctx, id)
	if errors.Is(err, ghazalstore.ErrNotFound) {
		h.ErrLog.Respond(w, r, apperr.Wrapf(apperr.NotFound, op, err, "ghazal not found"))
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}

	httpjson.Write(w, http.StatusOK, ghazalResponse{
		Ghazal:   *g,
		PoetName: normalize.PoetDisplayName(g.Poet),
		Lines:    normalize.Lines(g.Content),
	})
}
