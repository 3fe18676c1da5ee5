// internal/app/features/verification/handler.go
package verification

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auditlog"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	verificationsvc "github.com/dalemusser/intikhab/internal/app/system/verification"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.uber.org/zap"
)

// Submitter files poet verification requests.
type Submitter interface {
	Submit(ctx context.Context, sess auth.Session, in verificationsvc.Submission) (*models.PoetVerificationRequest, error)
}

// Handler lets curators ask to become verified poets.
type Handler struct {
	Service  Submitter
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(svc Submitter, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, AuditLog: audit, ErrLog: errLog, Log: logger}
}

// HandleSubmit handles POST /verification-requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in verificationsvc.Submission
	if err := httpjson.Decode(r, &in); err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrapf(apperr.InvalidOperation, "verification.HandleSubmit", err, "invalid request body"))
		return
	}
	sess := auth.CurrentSession(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	req, err := h.Service.Submit(ctx, sess, in)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.AuditLog.VerificationSubmitted(ctx, r, sess.UserID, req.ID)
	httpjson.Write(w, http.StatusCreated, req)
}
