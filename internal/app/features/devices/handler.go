// internal/app/features/devices/handler.go
package devices

import (
	"context"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Registrar stores push tokens.
type Registrar interface {
	Register(ctx context.Context, userID, token, platform string) error
}

type Handler struct {
	Devices Registrar
	ErrLog  *errorsfeature.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(devices Registrar, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Devices: devices, ErrLog: errLog, Log: logger}
}

type registerRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// HandleRegister handles POST /devices. Registration runs after the response
// is written; failures are logged and never reach the client.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "devices.HandleRegister"
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrapf(apperr.InvalidOperation, op, err, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		h.ErrLog.Respond(w, r, apperr.New(apperr.InvalidOperation, op, "device token is required"))
		return
	}
	userID := auth.CurrentSession(r).UserID

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Short())
	go func() {
		defer cancel()
		if err := h.Devices.Register(ctx, userID, req.Token, req.Platform); err != nil {
			h.Log.Warn("device registration failed",
				zap.String("user_id", userID),
				zap.String("platform", req.Platform),
				zap.Error(err))
			return
		}
		h.Log.Debug("device registered", zap.String("user_id", userID), zap.String("platform", req.Platform))
	}()

	w.WriteHeader(http.StatusAccepted)
}
