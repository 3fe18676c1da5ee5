// Package auth resolves the caller's Session from a bearer token or a
// cookie session and carries it in the request context.
//
// Mobile clients send "Authorization: Bearer <jwt>"; web clients use the
// gorilla cookie session written at sign-in. Handlers read the Session with
// CurrentSession and pass it to services explicitly.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/intikhab/internal/app/system/apperr"
	"github.com/dalemusser/intikhab/internal/app/system/httpjson"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// Session identifies the caller of one request. The zero value is a
// signed-out caller.
type Session struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// SignedIn reports whether the session belongs to a user.
func (s Session) SignedIn() bool { return s.UserID != "" }

// Config configures a Manager.
type Config struct {
	SessionKey   string
	SessionName  string
	Domain       string
	MaxAge       time.Duration
	Secure       bool
	TokenSecret  string
	TokenTTL     time.Duration
	AdminUserIDs []string
}

// Manager issues and resolves sessions.
type Manager struct {
	store  *sessions.CookieStore
	name   string
	tokens *Tokens
	admins map[string]bool
	log    *zap.Logger
}

// NewManager returns a Manager. The session key must be set; keys shorter
// than 32 bytes are accepted with a warning.
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if cfg.SessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(cfg.SessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(cfg.SessionKey)))
	}
	if cfg.SessionName == "" {
		cfg.SessionName = "intikhab-session"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30 * 24 * time.Hour
	}
	secret := cfg.TokenSecret
	if secret == "" {
		secret = cfg.SessionKey
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.Options = &sessions.Options{
		Domain:   cfg.Domain,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.Secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	admins := make(map[string]bool, len(cfg.AdminUserIDs))
	for _, id := range cfg.AdminUserIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = true
		}
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", cfg.Secure),
		zap.String("domain", cfg.Domain),
		zap.Int("admins", len(admins)))

	return &Manager{
		store:  store,
		name:   cfg.SessionName,
		tokens: NewTokens([]byte(secret), cfg.TokenTTL),
		admins: admins,
		log:    logger,
	}, nil
}

// Tokens returns the bearer token issuer.
func (m *Manager) Tokens() *Tokens { return m.tokens }

// IsAdmin reports whether userID is configured as an admin.
func (m *Manager) IsAdmin(userID string) bool { return m.admins[userID] }

func (m *Manager) session(userID, email string) Session {
	return Session{UserID: userID, Email: email, IsAdmin: m.admins[userID]}
}

// SignIn writes the cookie session and returns a bearer token for clients
// that do not keep cookies.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, userID, email string) (string, time.Time, error) {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[userIDKey] = userID
	sess.Values[emailKey] = email
	if err := sess.Save(r, w); err != nil {
		return "", time.Time{}, err
	}
	return m.tokens.Issue(userID, email)
}

// SignOut clears the cookie session. Bearer tokens stay valid until they
// expire.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Resolve returns the Session for r. A malformed bearer token is an error;
// a missing or unreadable cookie is a signed-out Session.
func (m *Manager) Resolve(r *http.Request) (Session, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return Session{}, errBadAuthorization
		}
		claims, err := m.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return Session{}, err
		}
		return m.session(claims.Subject, claims.Email), nil
	}

	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return Session{}, nil
	}
	id, _ := sess.Values[userIDKey].(string)
	if id == "" {
		return Session{}, nil
	}
	email, _ := sess.Values[emailKey].(string)
	return m.session(id, email), nil
}

var errBadAuthorization = errors.New("authorization header must use the Bearer scheme")

type ctxKey struct{}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// CurrentSession returns the Session injected by LoadSession, or a
// signed-out Session.
func CurrentSession(r *http.Request) Session {
	s, _ := r.Context().Value(ctxKey{}).(Session)
	return s
}

// LoadSession resolves the Session and injects it into the request context.
// Requests with an invalid bearer token are rejected with 401.
func (m *Manager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Resolve(r)
		if err != nil {
			m.log.Debug("rejecting bearer token", zap.Error(err))
			httpjson.Error(w, m.log, apperr.Wrapf(apperr.Unauthenticated, "auth.LoadSession", err, "invalid or expired token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RequireSignedIn rejects signed-out callers with 401.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CurrentSession(r).SignedIn() {
			httpjson.Error(w, m.log, apperr.New(apperr.Unauthenticated, "auth.RequireSignedIn", "sign in to continue"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects signed-out callers with 401 and non-admins with 403.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := CurrentSession(r)
		if !s.SignedIn() {
			httpjson.Error(w, m.log, apperr.New(apperr.Unauthenticated, "auth.RequireAdmin", "sign in to continue"))
			return
		}
		if !s.IsAdmin {
			httpjson.Error(w, m.log, apperr.New(apperr.PermissionDenied, "auth.RequireAdmin", "admins only"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
