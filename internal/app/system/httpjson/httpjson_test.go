package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestError_StatusAndBody(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantKind string
		wantMsg  string
	}{
		{apperr.New(apperr.NotFound, "op", "couplet not found"), http.StatusNotFound, "not_found", "couplet not found"},
		{apperr.New(apperr.SyncFailed, "op", "the item no longer exists"), http.StatusConflict, "sync_failed", "the item no longer exists"},
		{apperr.New(apperr.InvalidOperation, "op", "cannot follow your own collection"), http.StatusBadRequest, "invalid_operation", "cannot follow your own collection"},
		{apperr.New(apperr.Unauthenticated, "op", "sign in to continue"), http.StatusUnauthorized, "unauthenticated", "sign in to continue"},
		{apperr.New(apperr.PermissionDenied, "op", "admins only"), http.StatusForbidden, "permission_denied", "admins only"},
		{errors.New("socket closed"), http.StatusInternalServerError, "internal", "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantKind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, zap.NewNop(), tt.err)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Kind != tt.wantKind || body.Error.Message != tt.wantMsg {
				t.Errorf("body = %+v", body.Error)
			}
		})
	}
}

func TestWrite_ContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusCreated, map[string]string{"id": "x"})
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestWrite_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusOK, map[string]any{"bad": make(chan int)})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		CoupletID string `json:"coupletId"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"coupletId":"c1"}`))
	if err := Decode(r, &v); err != nil || v.CoupletID != "c1" {
		t.Fatalf("Decode = %v, %+v", err, v)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	if err := Decode(r, &v); !apperr.Is(err, apperr.InvalidOperation) {
		t.Errorf("unknown field err = %v", err)
	}
}
