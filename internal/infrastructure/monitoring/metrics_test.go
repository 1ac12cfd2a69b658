package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBusinessMetrics(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.PlanGenerated("local", 21, 3)
	m.PlanGenerated("local", 21, 1)
	m.AIAttempt("openai", "retry")
	m.ExternalSearch("degraded")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.plansGeneratedTotal.WithLabelValues("local")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.unmatchedMeals.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aiAttemptsTotal.WithLabelValues("openai", "retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalSearches.WithLabelValues("degraded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestHTTPMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsCollector(zap.NewNop())
	router := gin.New()
	router.Use(m.HTTPMiddleware())
	router.GET("/recipes/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipes/42", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/recipes/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dietcoach_http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
