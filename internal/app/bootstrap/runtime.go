// internal/app/bootstrap/runtime.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/intikhab/internal/app/store/audit"
	coupletstore "github.com/dalemusser/intikhab/internal/app/store/couplets"
	credentialstore "github.com/dalemusser/intikhab/internal/app/store/credentials"
	devicestore "github.com/dalemusser/intikhab/internal/app/store/devices"
	ghazalstore "github.com/dalemusser/intikhab/internal/app/store/ghazals"
	"github.com/dalemusser/intikhab/internal/app/store/oauthstate"
	poetstore "github.com/dalemusser/intikhab/internal/app/store/poets"
	"github.com/dalemusser/intikhab/internal/app/store/queries/itemrefs"
	userstore "github.com/dalemusser/intikhab/internal/app/store/users"
	verificationstore "github.com/dalemusser/intikhab/internal/app/store/verifications"
	"github.com/dalemusser/intikhab/internal/app/system/auditlog"
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/dalemusser/intikhab/internal/app/system/countersync"
	"github.com/dalemusser/intikhab/internal/app/system/feed"
	"github.com/dalemusser/intikhab/internal/app/system/identity"
	"github.com/dalemusser/intikhab/internal/app/system/membership"
	"github.com/dalemusser/intikhab/internal/app/system/paging"
	"github.com/dalemusser/intikhab/internal/app/system/ratelimit"
	"github.com/dalemusser/intikhab/internal/app/system/txn"
	"github.com/dalemusser/intikhab/internal/app/system/verification"
	"github.com/dalemusser/intikhab/internal/app/system/workers"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// housekeepingInterval is how often idle feeds, limiter buckets and expired
// OAuth states are cleaned up.
const housekeepingInterval = time.Minute

// Runtime is the service graph shared by the HTTP handlers. It is built once
// in Startup and torn down in Shutdown.
type Runtime struct {
	DB  *mongo.Database
	Log *zap.Logger

	Users    *userstore.Store
	Couplets *coupletstore.Store
	Poets    *poetstore.Store
	Ghazals  *ghazalstore.Store
	Devices  *devicestore.Store
	States   *oauthstate.Store

	Sessions     *auth.Manager
	Identity     *identity.Provider
	Membership   *membership.Service
	Verification *verification.Service
	Audit        *auditlog.Logger
	Limiter      *ratelimit.SignInLimiter
	Codec        *paging.Codec
	Feeds        *feed.Registry[models.Couplet]
	PageSize     int

	housekeeping *workers.Housekeeping
	unsubscribe  []func()
}

// NewRuntime wires stores and services. It does not start background work;
// call Start for that.
func NewRuntime(appCfg AppConfig, secure bool, db *mongo.Database, logger *zap.Logger) (*Runtime, error) {
	sessions, err := auth.NewManager(auth.Config{
		SessionKey:   appCfg.SessionKey,
		SessionName:  appCfg.SessionName,
		Domain:       appCfg.SessionDomain,
		MaxAge:       appCfg.SessionMaxAge,
		Secure:       secure,
		TokenSecret:  appCfg.TokenSecret,
		TokenTTL:     appCfg.TokenTTL,
		AdminUserIDs: appCfg.AdminUserIDs,
	}, logger)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		DB:       db,
		Log:      logger,
		Users:    userstore.New(db, logger),
		Couplets: coupletstore.New(db),
		Poets:    poetstore.New(db),
		Ghazals:  ghazalstore.New(db),
		Devices:  devicestore.New(db),
		States:   oauthstate.New(db),
		Sessions: sessions,
		Limiter:  ratelimit.NewSignInLimiter(appCfg.SignInRatePerMinute),
		Codec:    paging.NewCodec([]byte(appCfg.CursorKey)),
		PageSize: appCfg.FeedPageSize,
		Audit: auditlog.New(audit.New(db), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
	}

	// A nil *GoogleOAuth must not become a non-nil interface.
	var google identity.GoogleExchanger
	if g := identity.NewGoogleOAuth(appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.GoogleRedirectURL); g != nil {
		google = g
	} else {
		logger.Info("Google sign-in disabled (no client credentials)")
	}
	rt.Identity = identity.New(credentialstore.New(db), rt.Users, google, logger)

	rt.Membership = membership.New(
		rt.Users,
		rt.Couplets,
		rt.Poets,
		countersync.New(db, logger, appCfg.MongoRequireTxn),
		itemrefs.New(rt.Couplets, logger),
		logger,
	)

	run := func(ctx context.Context, fn txn.Fn) error { return txn.Run(ctx, db, logger, fn) }
	if appCfg.MongoRequireTxn {
		run = func(ctx context.Context, fn txn.Fn) error { return txn.RunStrict(ctx, db, fn) }
	}
	rt.Verification = verification.New(verificationstore.New(db), rt.Users, rt.Poets, run, logger)

	fetchTimeout := appCfg.FeedFetchTimeout
	rt.Feeds = feed.NewRegistry(func() *feed.Feed[models.Couplet] {
		return feed.New(rt.Couplets.Page, appCfg.FeedPageSize, feed.WithFetchTimeout(fetchTimeout))
	})

	rt.housekeeping = workers.NewHousekeeping(rt.Feeds, rt.Limiter, rt.States, logger, housekeepingInterval, appCfg.FeedIdleTimeout)
	return rt, nil
}

// Start subscribes auth listeners and starts background workers.
func (rt *Runtime) Start() {
	rt.unsubscribe = append(rt.unsubscribe, rt.Identity.OnAuthStateChanged(rt.ensureDefaultCollection))
	rt.housekeeping.Start()
}

// ensureDefaultCollection creates the profile document and its single
// collection, moving to the next username candidate while the name is taken.
// It also runs on sign-in so an account whose sign-up listener failed is
// repaired on its next visit.
func (rt *Runtime) ensureDefaultCollection(ctx context.Context, ev identity.AuthEvent) error {
	if ev.Type != identity.SignedUp && ev.Type != identity.SignedIn {
		return nil
	}
	pr := ev.Principal
	var err error
	for _, username := range identity.UsernameCandidates(pr) {
		_, err = rt.Membership.CreateDefaultCollection(ctx, pr.UserID, pr.Email, username)
		if !errors.Is(err, userstore.ErrUsernameTaken) {
			return err
		}
		rt.Log.Info("username taken; trying next candidate",
			zap.String("user_id", pr.UserID),
			zap.String("username", username))
	}
	return err
}

// Close stops workers, closes live feeds and removes listeners. It does not
// disconnect the database.
func (rt *Runtime) Close() {
	rt.housekeeping.Stop()
	rt.Feeds.CloseAll()
	for _, u := range rt.unsubscribe {
		u()
	}
	rt.unsubscribe = nil
}
