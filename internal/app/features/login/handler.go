// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
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

// Identity is the part of the identity provider the handler needs.
type Identity interface {
	SignUp(ctx context.Context, email, password, username string) (identity.Principal, error)
	SignIn(ctx context.Context, email, password string) (identity.Principal, error)
	SignOut(ctx context.Context, pr identity.Principal)
}

// Limiter throttles credential attempts.
type Limiter interface {
	Check(r *http.Request, email string) (bool, string)
	ResetEmail(email string)
}

// Handler serves email/password sign-up and sign-in.
type Handler struct {
	Identity   Identity
	SessionMgr *auth.Manager
	Limiter    Limiter
	AuditLog   *auditlog.Logger
	ErrLog     *errorsfeature.ErrorLogger
	Log        *zap.Logger
}

// NewHandler constructs a login Handler.
func NewHandler(id Identity, sessionMgr *auth.Manager, limiter Limiter, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Identity:   id,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is returned on sign-up and sign-in. Token is for clients
// that do not keep cookies.
type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) throttled(w http.ResponseWriter, r *http.Request, email string) bool {
	if h.Limiter == nil {
		return false
	}
	ok, reason := h.Limiter.Check(r, email)
	if ok {
		return false
	}
	h.AuditLog.SignInRateLimited(r.Context(), r, email)
	httpjson.Write(w, http.StatusTooManyRequests, httpjson.ErrorBody{Error: httpjson.ErrorDetail{
		Kind:    apperr.InvalidOperation.String(),
		Message: reason,
	}})
	return true
}

// startSession writes the cookie session and the JSON response.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, status int, pr identity.Principal) {
	token, exp, err := h.SessionMgr.SignIn(w, r, pr.UserID, pr.Email)
	if err != nil {
		h.ErrLog.Respond(w, r, apperr.Wrap(apperr.Internal, "login.startSession", err))
		return
	}
	httpjson.Write(w, status, sessionResponse{
		UserID:    pr.UserID,
		Email:     pr.Email,
		Username:  pr.Username,
		Token:     token,
		ExpiresAt: exp,
	})
}

// HandleSignUp handles POST /auth/signup.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if h.throttled(w, r, req.Email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pr, err := h.Identity.SignUp(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.AuditLog.SignUp(ctx, r, pr.UserID, models.ProviderPassword)
	h.startSession(w, r, http.StatusCreated, pr)
}

// HandleSignIn handles POST /auth/signin.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if h.throttled(w, r, req.Email) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pr, err := h.Identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.Unauthenticated) {
			h.AuditLog.SignInFailed(ctx, r, req.Email, "invalid_credentials")
		}
		h.ErrLog.Respond(w, r, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.AuditLog.SignInSuccess(ctx, r, pr.UserID, models.ProviderPassword)
	h.startSession(w, r, http.StatusOK, pr)
}

// HandleSignOut handles POST /auth/signout. Signing out without a session
// still clears the cookie.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	s := auth.CurrentSession(r)
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("failed to clear session cookie", zap.Error(err))
	}
	if s.SignedIn() {
		h.Identity.SignOut(r.Context(), identity.Principal{UserID: s.UserID, Email: s.Email})
		h.AuditLog.SignOut(r.Context(), r, s.UserID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMe handles GET /auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, auth.CurrentSession(r))
}
