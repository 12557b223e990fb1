package health

import (
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailapi/backend/internal/storage"
)

// HealthChecker reports on the mail database behind a storage.Store.
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewHealthChecker creates a HealthChecker with a "database" liveness check.
func NewHealthChecker(store storage.Store, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	hc.health.AddLivenessCheck("database", hc.checkDatabase)
	return hc
}

// Handler serves /live and /ready for an embedding HTTP server.
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// CheckHealth runs the checks once and returns a status per component.
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.checkDatabase(); err != nil {
		results["database"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["database"] = "OK"
	}

	results["timestamp"] = hc.now().Format(time.RFC3339)
	return results
}

func (hc *HealthChecker) checkDatabase() error {
	if hc.store == nil {
		return fmt.Errorf("no store configured")
	}
	if err := hc.store.Health(); err != nil {
		hc.logger.Warn("database health check failed", zap.Error(err))
		return err
	}
	return nil
}
