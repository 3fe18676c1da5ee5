// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// ErrorLogger writes classified errors as JSON. Internal errors are logged
// with the request that produced them; everything else is a client error
// and is logged at debug.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// Respond writes err with the status for its kind.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if s := auth.CurrentSession(r); s.SignedIn() {
		fields = append(fields, zap.String("user_id", s.UserID))
	}
	if apperr.KindOf(err) == apperr.Internal {
		e.Log.Error("request failed", fields...)
	} else {
		e.Log.Debug("request rejected", append(fields, zap.Stringer("kind", apperr.KindOf(err)))...)
	}
	httpjson.Error(w, nil, err)
}

// Handler serves the router's fallback responses.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers requests that match no route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httpjson.Error(w, nil, apperr.New(apperr.NotFound, "router", "no route for "+r.Method+" "+r.URL.Path))
}

// MethodNotAllowed answers requests whose path matches with another method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusMethodNotAllowed, httpjson.ErrorBody{Error: httpjson.ErrorDetail{
		Kind:    apperr.InvalidOperation.String(),
		Message: r.Method + " is not allowed on " + r.URL.Path,
	}})
}
