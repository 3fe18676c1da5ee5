package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewSessionManager returns a session manager with test keys. "admin-1" is
// configured as an admin.
func NewSessionManager(t *testing.T) *auth.Manager {
	t.Helper()
	sm, err := auth.NewManager(auth.Config{
		SessionKey:   "test-session-key-must-be-32-chars-long",
		SessionName:  "test-session",
		TokenSecret:  "test-token-secret",
		AdminUserIDs: []string{"admin-1"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return sm
}

// WithChiURLParams adds chi URL parameters (key, value pairs) to the request
// context. Use this in handler tests that read chi.URLParam values.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithSession adds a Session to the request context for testing
// authenticated handlers. This bypasses the session middleware.
func WithSession(r *http.Request, s auth.Session) *http.Request {
	return r.WithContext(auth.WithSession(r.Context(), s))
}

// NewRequest creates an HTTP request for testing. A non-empty body is sent
// as JSON.
func NewRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAuthenticatedRequest creates an HTTP request signed in as userID.
func NewAuthenticatedRequest(method, target, body, userID string) *http.Request {
	return WithSession(NewRequest(method, target, body), auth.Session{UserID: userID, Email: userID + "@test.com"})
}

// NewAdminRequest creates an HTTP request signed in as an admin.
func NewAdminRequest(method, target, body, userID string) *http.Request {
	return WithSession(NewRequest(method, target, body), auth.Session{UserID: userID, Email: userID + "@test.com", IsAdmin: true})
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location prefix.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, prefix string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); !strings.HasPrefix(location, prefix) {
		t.Errorf("redirect location: got %q, want prefix %q", location, prefix)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}
