package login_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/features/login"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/identity"
	"github.com/dalemusser/intikhab/internal/app/system/ratelimit"
	"github.com/dalemusser/intikhab/internal/testutil"
	"go.uber.org/zap"
)

// fakeIdentity accepts one account: zara@example.com / secret1.
type fakeIdentity struct {
	signedOut []string
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password, username string) (identity.Principal, error) {
	if len(password) < 6 {
		return identity.Principal{}, apperr.New(apperr.InvalidOperation, "SignUp", "password must be at least 6 characters")
	}
	return identity.Principal{UserID: "u-new", Email: email, Username: username, Provider: "password"}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (identity.Principal, error) {
	if email != "zara@example.com" || password != "secret1" {
		return identity.Principal{}, apperr.New(apperr.Unauthenticated, "SignIn", "invalid email or password")
	}
	return identity.Principal{UserID: "u-zara", Email: email, Provider: "password"}, nil
}

func (f *fakeIdentity) SignOut(_ context.Context, pr identity.Principal) {
	f.signedOut = append(f.signedOut, pr.UserID)
}

func newTestHandler(t *testing.T, perMinute int) (*login.Handler, *fakeIdentity, *auth.Manager) {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewManager(auth.Config{
		SessionKey:  "test-session-key-must-be-32-chars-long",
		SessionName: "test-session",
		TokenSecret: "test-token-secret",
		TokenTTL:    time.Hour,
	}, logger)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	id := &fakeIdentity{}
	h := login.NewHandler(id, sm, ratelimit.NewSignInLimiter(perMinute), nil, errorsfeature.NewErrorLogger(logger), logger)
	return h, id, sm
}

type sessionBody struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func TestHandleSignUp(t *testing.T) {
	h, _, sm := newTestHandler(t, 30)

	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewRequest("POST", "/auth/signup",
		`{"email":"new@example.com","password":"secret1","username":"newbie"}`))
	rec.AssertStatus(t, http.StatusCreated)

	var body sessionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.UserID != "u-new" {
		t.Errorf("user_id: got %q", body.UserID)
	}
	claims, err := sm.Tokens().Parse(body.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != "u-new" {
		t.Errorf("token subject: got %q", claims.Subject)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestHandleSignUp_Invalid(t *testing.T) {
	h, _, _ := newTestHandler(t, 30)

	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewRequest("POST", "/auth/signup",
		`{"email":"new@example.com","password":"123","username":"newbie"}`))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewRequest("POST", "/auth/signup", `{"email":`))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleSignIn(t *testing.T) {
	h, _, _ := newTestHandler(t, 30)

	rec := testutil.NewRecorder()
	h.HandleSignIn(rec, testutil.NewRequest("POST", "/auth/signin", `{"email":"zara@example.com","password":"secret1"}`))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"user_id":"u-zara"`)

	rec = testutil.NewRecorder()
	h.HandleSignIn(rec, testutil.NewRequest("POST", "/auth/signin", `{"email":"zara@example.com","password":"wrong"}`))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleSignIn_RateLimited(t *testing.T) {
	// Five per minute per IP leaves one attempt per email.
	h, _, _ := newTestHandler(t, 5)

	body := `{"email":"zara@example.com","password":"wrong"}`
	rec := testutil.NewRecorder()
	h.HandleSignIn(rec, testutil.NewRequest("POST", "/auth/signin", body))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	h.HandleSignIn(rec, testutil.NewRequest("POST", "/auth/signin", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleSignOut(t *testing.T) {
	h, id, _ := newTestHandler(t, 30)

	rec := testutil.NewRecorder()
	h.HandleSignOut(rec, testutil.NewAuthenticatedRequest("POST", "/auth/signout", "", "u-zara"))
	rec.AssertStatus(t, http.StatusNoContent)
	if len(id.signedOut) != 1 || id.signedOut[0] != "u-zara" {
		t.Errorf("signed out: got %v", id.signedOut)
	}

	rec = testutil.NewRecorder()
	h.HandleSignOut(rec, testutil.NewRequest("POST", "/auth/signout", ""))
	rec.AssertStatus(t, http.StatusNoContent)
	if len(id.signedOut) != 1 {
		t.Error("signed-out caller should not emit SignedOut")
	}
}

func TestRoutes_MeRequiresSession(t *testing.T) {
	h, _, sm := newTestHandler(t, 30)
	router := login.Routes(h, sm)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/me", ""))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/me", "", "u-zara"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"user_id":"u-zara"`)
}
