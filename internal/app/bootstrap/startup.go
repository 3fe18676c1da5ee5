// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/intikhab/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

var (
	runtimeMu sync.Mutex
	current   *Runtime
)

func currentRuntime() *Runtime {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	return current
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the service graph, subscribes the profile bootstrap to auth events and
// starts housekeeping.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Medium: appCfg.StoreTimeout})

	rt, err := NewRuntime(appCfg, coreCfg.Env == "prod", deps.MongoDatabase, logger)
	if err != nil {
		logger.Error("runtime init failed", zap.Error(err))
		return err
	}
	rt.Start()

	runtimeMu.Lock()
	current = rt
	runtimeMu.Unlock()

	logger.Info("intikhab runtime started",
		zap.Int("feed_page_size", appCfg.FeedPageSize),
		zap.Int("admins", len(appCfg.AdminUserIDs)),
		zap.Bool("google_sign_in", rt.Identity.GoogleEnabled()))
	return nil
}
