// Package httpjson writes JSON responses and apperr-classified errors.
package httpjson

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response:
//
//	{"error":{"kind":"not_found","message":"couplet not found"}}
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the kind and client-safe message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Write encodes v with status. The body is buffered so an encoding failure
// still produces a well-formed 500.
func Write(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"kind":"internal","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.SyncFailed:
		return http.StatusConflict
	case apperr.InvalidOperation:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. Internal errors are logged and their
// cause is never sent to the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.Message(err)
	if kind == apperr.Internal {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		msg = "internal error"
	}
	Write(w, StatusFor(kind), ErrorBody{Error: ErrorDetail{Kind: kind.String(), Message: msg}})
}

// Decode reads a JSON request body into v, capped at 64 KiB. Malformed
// bodies are reported as InvalidOperation.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrapf(apperr.InvalidOperation, "httpjson.Decode", err, "malformed request body")
	}
	return nil
}
