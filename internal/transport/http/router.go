package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mailapi/backend/internal/health"
	"mailapi/backend/internal/middleware"
	"mailapi/backend/internal/monitoring"
)

// RouterDependencies bundles what the operations endpoints serve.
type RouterDependencies struct {
	Health   *health.HealthChecker
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Metrics  *monitoring.Metrics // optional, records HTTP request metrics
	Logger   *zap.Logger
}

// NewRouter returns the operations router:
//
//	GET /live, /ready   liveness and readiness probes
//	GET /status         per-component status as JSON
//	GET /metrics        Prometheus exposition
func NewRouter(deps RouterDependencies) *gin.Engine {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(middleware.RecoveryHandler(deps.Logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.HTTPMetrics(deps.Metrics))
	router.Use(middleware.SecurityHeaders())

	probes := gin.WrapH(deps.Health.Handler())
	router.GET("/live", probes)
	router.GET("/ready", probes)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/status", statusHandler(deps.Health))

	return router
}

func statusHandler(hc *health.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := hc.CheckHealth()
		for name, status := range results {
			if strings.HasPrefix(status, "ERROR") {
				Respond(c, http.StatusServiceUnavailable, name+" unavailable", results)
				return
			}
		}
		Respond(c, http.StatusOK, "ok", results)
	}
}
