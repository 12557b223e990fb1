package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailapi/backend/internal/health"
	"mailapi/backend/internal/monitoring"
	sqlstore "mailapi/backend/internal/storage/sql"
	"mailapi/backend/internal/storage/sql/sqltest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Healthy(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	metrics.Observe("domain.create", nil)

	router := NewRouter(RouterDependencies{
		Health:   health.NewHealthChecker(sqltest.NewStore(t), zap.NewNop()),
		Gatherer: reg,
		Metrics:  metrics,
		Logger:   zap.NewNop(),
	})

	assert.Equal(t, http.StatusOK, get(t, router, "/live").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/ready").Code)

	rec := get(t, router, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Msg)
	assert.Equal(t, "OK", resp.Data.(map[string]interface{})["database"])

	rec = get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mailapi_operations_total{operation="domain.create",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `mailapi_http_requests_total{endpoint="/status",method="GET",status_code="200"} 1`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Unhealthy(t *testing.T) {
	router := NewRouter(RouterDependencies{
		Health:   health.NewHealthChecker(&sqlstore.Store{}, nil),
		Gatherer: prometheus.NewRegistry(),
	})

	assert.Equal(t, http.StatusServiceUnavailable, get(t, router, "/live").Code)

	rec := get(t, router, "/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unavailable")
}
