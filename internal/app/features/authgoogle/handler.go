// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/auditlog"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/dalemusser/intikhab/internal/app/system/identity"
	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.uber.org/zap"
)

// stateTTL bounds how long a consent round trip may take.
const stateTTL = 10 * time.Minute

// Provider is the Google half of the identity provider.
type Provider interface {
	GoogleEnabled() bool
	GoogleAuthURL(state string) (string, error)
	SignInGoogle(ctx context.Context, code string) (identity.Principal, identity.EventType, error)
}

// StateStore keeps OAuth state values between start and callback.
type StateStore interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Consume(ctx context.Context, state string) (returnURL string, ok bool, err error)
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Provider   Provider
	StateStore StateStore
	SessionMgr *auth.Manager
	AuditLog   *auditlog.Logger
	ErrLog     *errorsfeature.ErrorLogger
	Log        *zap.Logger
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(p Provider, states StateStore, sessionMgr *auth.Manager, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Provider:   p,
		StateStore: states,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	NewUser   bool      `json:"new_user"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/start                                                       |
| Saves a one-time state and redirects to Google's consent screen.             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	if !h.Provider.GoogleEnabled() {
		h.ErrLog.Respond(w, r, apperr.New(apperr.InvalidOperation, "authgoogle.ServeStart", "google sign-in is not configured"))
		return
	}

	state, err := generateState()
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, "authgoogle.ServeStart", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL := safeReturnURL(r.URL.Query().Get("return"))
	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, "authgoogle.ServeStart", err))
		return
	}

	url, err := h.Provider.GoogleAuthURL(state)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Consumes the state, exchanges the code and starts a session.                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	const op = "authgoogle.ServeCallback"
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		h.ErrLog.Respond(w, r, apperr.New(apperr.Unauthenticated, op, "google sign-in was cancelled"))
		return
	}

	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		h.ErrLog.Respond(w, r, apperr.New(apperr.InvalidOperation, op, "missing state or code"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	returnURL, ok, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}
	if !ok {
		h.ErrLog.Respond(w, r, apperr.New(apperr.InvalidOperation, op, "invalid or expired state"))
		return
	}

	pr, ev, err := h.Provider.SignInGoogle(ctx, code)
	if err != nil {
		h.AuditLog.SignInFailed(ctx, r, "", "google_"+apperr.KindOf(err).String())
		h.ErrLog.Respond(w, r, err)
		return
	}
	switch {
	case ev == identity.SignedUp:
		h.AuditLog.SignUp(ctx, r, pr.UserID, models.ProviderGoogle)
	case pr.Linked:
		h.AuditLog.GoogleAccountLinked(ctx, r, pr.UserID)
	}
	h.AuditLog.SignInSuccess(ctx, r, pr.UserID, models.ProviderGoogle)

	token, exp, err := h.SessionMgr.SignIn(w, r, pr.UserID, pr.Email)
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, op, err))
		return
	}
	if returnURL != "" {
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
		return
	}
	httpjson.Write(w, http.StatusOK, sessionResponse{
		UserID:    pr.UserID,
		Email:     pr.Email,
		Token:     token,
		ExpiresAt: exp,
		NewUser:   ev == identity.SignedUp,
	})
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// safeReturnURL keeps only same-site paths.
func safeReturnURL(s string) string {
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.Contains(s, `\`) {
		return ""
	}
	return s
}
