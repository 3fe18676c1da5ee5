// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	adminfeature "github.com/dalemusser/intikhab/internal/app/features/admin"
	authgooglefeature "github.com/dalemusser/intikhab/internal/app/features/authgoogle"
	collectionsfeature "github.com/dalemusser/intikhab/internal/app/features/collections"
	devicesfeature "github.com/dalemusser/intikhab/internal/app/features/devices"
	discoverfeature "github.com/dalemusser/intikhab/internal/app/features/discover"
	errorsfeature "github.com/dalemusser/intikhab/internal/app/features/errors"
	feedfeature "github.com/dalemusser/intikhab/internal/app/features/feed"
	ghazalsfeature "github.com/dalemusser/intikhab/internal/app/features/ghazals"
	healthfeature "github.com/dalemusser/intikhab/internal/app/features/health"
	loginfeature "github.com/dalemusser/intikhab/internal/app/features/login"
	poetsfeature "github.com/dalemusser/intikhab/internal/app/features/poets"
	profilefeature "github.com/dalemusser/intikhab/internal/app/features/profile"
	verificationfeature "github.com/dalemusser/intikhab/internal/app/features/verification"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so the Runtime is available.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := currentRuntime()
	if rt == nil {
		return nil, errors.New("bootstrap: BuildHandler called before Startup")
	}
	return NewRouter(rt, deps.MongoClient), nil
}

// NewRouter mounts every feature router on a fresh chi router.
func NewRouter(rt *Runtime, client *mongo.Client) chi.Router {
	logger := rt.Log
	sm := rt.Sessions
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Resolves the bearer token or cookie into a Session on every request.
	r.Use(sm.LoadSession)

	healthHandler := healthfeature.NewHandler(client, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(rt.Identity, sm, rt.Limiter, rt.Audit, errLog, logger)
	authRouter := loginfeature.Routes(loginHandler, sm)
	googleHandler := authgooglefeature.NewHandler(rt.Identity, rt.States, sm, rt.Audit, errLog, logger)
	authRouter.Mount("/google", authgooglefeature.Routes(googleHandler))
	r.Mount("/auth", authRouter)

	// Collections
	collectionsHandler := collectionsfeature.NewHandler(rt.Membership, errLog, logger)
	r.Mount("/collections", collectionsfeature.Routes(collectionsHandler, sm))

	profileHandler := profilefeature.NewHandler(rt.Membership, errLog, logger)
	r.Mount("/me", profilefeature.Routes(profileHandler, sm))

	// Browsing
	feedHandler := feedfeature.NewHandler(rt.Couplets, rt.Codec, rt.Feeds, rt.PageSize, errLog, logger)
	r.Mount("/feed", feedfeature.Routes(feedHandler, sm))

	discoverHandler := discoverfeature.NewHandler(rt.DB, errLog, logger)
	r.Mount("/discover", discoverfeature.Routes(discoverHandler))

	poetsHandler := poetsfeature.NewHandler(rt.Poets, rt.Ghazals, rt.Users, rt.Membership, errLog, logger)
	r.Mount("/poets", poetsfeature.Routes(poetsHandler, sm))

	ghazalsHandler := ghazalsfeature.NewHandler(rt.Ghazals, errLog, logger)
	r.Mount("/ghazals", ghazalsfeature.Routes(ghazalsHandler))

	// Poet verification
	verificationHandler := verificationfeature.NewHandler(rt.Verification, rt.Audit, errLog, logger)
	r.Mount("/verification-requests", verificationfeature.Routes(verificationHandler, sm))

	adminHandler := adminfeature.NewHandler(rt.Verification, rt.Audit, errLog, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sm))

	// Push registration
	devicesHandler := devicesfeature.NewHandler(rt.Devices, errLog, logger)
	r.Mount("/devices", devicesfeature.Routes(devicesHandler, sm))

	return r
}
