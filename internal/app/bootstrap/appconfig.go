// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration; ports, TLS, log level and
// CORS live in WAFFLE's CoreConfig.
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string        // Database name within MongoDB
	MongoMaxPoolSize uint64        // Max connections in the driver pool
	MongoMinPoolSize uint64        // Min connections kept warm
	MongoRequireTxn  bool          // Fail counter updates instead of degrading when transactions are unavailable
	MongoConnectWait time.Duration // Upper bound on connect + ping at startup
	StoreTimeout     time.Duration // Default bound on a single store call

	// Cookie sessions (web) and bearer tokens (mobile)
	SessionKey    string        // Secret key for signing session cookies
	SessionName   string        // Cookie name for sessions (default: intikhab-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime
	TokenSecret   string        // HMAC secret for bearer tokens
	TokenTTL      time.Duration // Bearer token lifetime
	AdminUserIDs  []string      // uids granted the admin claim

	// Google sign-in (disabled when client id or secret is blank)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Couplet feed
	FeedPageSize     int           // Couplets per feed page
	FeedIdleTimeout  time.Duration // Per-user feeds unused this long are closed
	FeedFetchTimeout time.Duration // Upper bound on one page fetch
	CursorKey        string        // HMAC key for public feed cursors

	// Abuse protection
	SignInRatePerMinute int // Sign-in/sign-up attempts per IP per minute

	// Audit logging: "all" (db+log), "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}
