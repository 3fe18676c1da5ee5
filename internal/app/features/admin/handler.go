// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auditlog"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Reviewer is the admin side of the verification workflow.
type Reviewer interface {
	ListPending(ctx context.Context, sess auth.Session, limit int) ([]models.PoetVerificationRequest, error)
	Approve(ctx context.Context, sess auth.Session, id string) (*models.PoetVerificationRequest, error)
	Reject(ctx context.Context, sess auth.Session, id string) (*models.PoetVerificationRequest, error)
}

// Handler serves the verification review queue.
type Handler struct {
	Reviewer Reviewer
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(reviewer Reviewer, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Reviewer: reviewer, AuditLog: audit, ErrLog: errLog, Log: logger}
}

// ServePending handles GET /admin/verification-requests?limit=N.
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.ErrLog.Respond(w, r, apperr.Wrapf(apperr.InvalidOperation, "admin.ServePending", err, "limit must be a number"))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reqs, err := h.Reviewer.ListPending(ctx, auth.CurrentSession(r), limit)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"requests": reqs})
}

// HandleApprove handles POST /admin/verification-requests/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// HandleReject handles POST /admin/verification-requests/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	id := chi.URLParam(r, "id")
	sess := auth.CurrentSession(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	fn := h.Reviewer.Reject
	if approve {
		fn = h.Reviewer.Approve
	}
	req, err := fn(ctx, sess, id)
	if err != nil {
		if apperr.KindOf(err) == apperr.PermissionDenied {
			h.AuditLog.DecisionDenied(ctx, r, sess.UserID, id)
		}
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.AuditLog.VerificationDecided(ctx, r, sess.UserID, req.UserID, req.ID, approve)
	httpjson.Write(w, http.StatusOK, req)
}
