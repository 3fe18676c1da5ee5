// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/intikhab/internal/app/store/audit"
	"github.com/dalemusser/intikhab/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config selects a mode per category.
type Config struct {
	Auth  string
	Admin string
}

// Sink is where events are persisted.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to the store and to zap according to Config.
// A nil *Logger is a no-op.
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// Log records event. Store failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func withRequest(r *http.Request, e audit.Event) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication events ---

func (l *Logger) SignUp(ctx context.Context, r *http.Request, userID, provider string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignUp,
		UserID:    userID,
		Success:   true,
		Details:   map[string]string{"provider": provider},
	}))
}

func (l *Logger) SignInSuccess(ctx context.Context, r *http.Request, userID, provider string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignInSuccess,
		UserID:    userID,
		Success:   true,
		Details:   map[string]string{"provider": provider},
	}))
}

// SignInFailed records a rejected sign-in. The attempted email is kept in
// details because there may be no user id.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSignInFailed,
		FailureReason: reason,
		Details:       map[string]string{"email": email},
	}))
}

func (l *Logger) SignInRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSignInRateLimited,
		FailureReason: "rate limited",
		Details:       map[string]string{"email": email},
	}))
}

func (l *Logger) SignOut(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignOut,
		UserID:    userID,
		Success:   true,
	}))
}

func (l *Logger) GoogleAccountLinked(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventGoogleAccountLinked,
		UserID:    userID,
		Success:   true,
	}))
}

// --- Verification workflow ---

func (l *Logger) VerificationSubmitted(ctx context.Context, r *http.Request, userID, requestID string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventVerificationSubmitted,
		UserID:    userID,
		Success:   true,
		Details:   map[string]string{"request_id": requestID},
	}))
}

// VerificationDecided records an approve or reject by an admin.
func (l *Logger) VerificationDecided(ctx context.Context, r *http.Request, actorID, userID, requestID string, approved bool) {
	et := audit.EventVerificationRejected
	if approved {
		et = audit.EventVerificationApproved
	}
	l.Log(ctx, withRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: et,
		UserID:    userID,
		ActorID:   actorID,
		Success:   true,
		Details:   map[string]string{"request_id": requestID},
	}))
}

// DecisionDenied records a non-admin attempt to decide a request.
func (l *Logger) DecisionDenied(ctx context.Context, r *http.Request, actorID, requestID string) {
	l.Log(ctx, withRequest(r, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventDecisionDenied,
		ActorID:       actorID,
		FailureReason: "not an admin",
		Details:       map[string]string{"request_id": requestID},
	}))
}
