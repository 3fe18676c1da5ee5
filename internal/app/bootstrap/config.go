// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Intikhab.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: INTIKHAB_MONGO_URI, INTIKHAB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "intikhab", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "mongo_require_txn", Default: true, Desc: "Fail counter updates when MongoDB transactions are unavailable"},
	{Name: "mongo_connect_timeout", Default: "15s", Desc: "Startup connect + ping timeout"},
	{Name: "store_timeout", Default: "10s", Desc: "Default timeout for a store call"},

	// Sessions and tokens
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "intikhab-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},
	{Name: "token_secret", Default: "", Desc: "Bearer token HMAC secret (required outside dev)"},
	{Name: "token_ttl", Default: "168h", Desc: "Bearer token lifetime"},
	{Name: "admin_user_ids", Default: "", Desc: "Comma-separated uids with admin rights"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "google_redirect_url", Default: "http://localhost:8080/auth/google/callback", Desc: "Google OAuth2 redirect URL"},

	// Feed
	{Name: "feed_page_size", Default: 10, Desc: "Couplets per feed page"},
	{Name: "feed_idle_timeout", Default: "30m", Desc: "Close per-user feeds idle this long"},
	{Name: "feed_fetch_timeout", Default: "10s", Desc: "Timeout for one feed page fetch"},
	{Name: "cursor_key", Default: "dev-only-cursor-key-0123456789ABCDEF", Desc: "HMAC key for feed cursors"},

	// Rate limiting
	{Name: "signin_rate_per_minute", Default: 10, Desc: "Sign-in attempts per IP per minute"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, INTIKHAB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "INTIKHAB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		MongoRequireTxn:  appValues.Bool("mongo_require_txn"),
		MongoConnectWait: appValues.Duration("mongo_connect_timeout", 15*time.Second),
		StoreTimeout:     appValues.Duration("store_timeout", 10*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),
		TokenSecret:   appValues.String("token_secret"),
		TokenTTL:      appValues.Duration("token_ttl", 7*24*time.Hour),
		AdminUserIDs:  splitList(appValues.String("admin_user_ids")),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		GoogleRedirectURL:  appValues.String("google_redirect_url"),

		FeedPageSize:     appValues.Int("feed_page_size"),
		FeedIdleTimeout:  appValues.Duration("feed_idle_timeout", 30*time.Minute),
		FeedFetchTimeout: appValues.Duration("feed_fetch_timeout", 10*time.Second),
		CursorKey:        appValues.String("cursor_key"),

		SignInRatePerMinute: appValues.Int("signin_rate_per_minute"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	// In dev an unset token secret falls back to the session key.
	// ValidateConfig rejects this outside dev.
	if appCfg.TokenSecret == "" && coreCfg.Env == "dev" {
		appCfg.TokenSecret = appCfg.SessionKey
		logger.Warn("token_secret not set; using session_key (dev only)")
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.TokenSecret == "" && coreCfg.Env != "dev" {
		return fmt.Errorf("token_secret is required outside dev")
	}
	if appCfg.FeedPageSize <= 0 {
		return fmt.Errorf("feed_page_size must be positive, got %d", appCfg.FeedPageSize)
	}
	if appCfg.SignInRatePerMinute <= 0 {
		return fmt.Errorf("signin_rate_per_minute must be positive, got %d", appCfg.SignInRatePerMinute)
	}
	return nil
}
