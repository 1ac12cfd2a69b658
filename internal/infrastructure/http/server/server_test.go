package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/config"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/handlers"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/middleware"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/monitoring"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App:    config.AppConfig{Name: "dietcoach", Environment: "test"},
		Server: config.ServerConfig{Port: 0, ReadTimeout: time.Second},
		Monitoring: config.MonitoringConfig{
			EnableMetrics:   true,
			MetricsPath:     "/metrics",
			HealthCheckPath: "/health",
			ReadinessPath:   "/ready",
			LivenessPath:    "/live",
		},
	}
	log := zap.NewNop()
	h := handlers.New(nil, nil, nil, nil, log)

	return NewServer(cfg, log, middleware.New(cfg, log), h, monitoring.NewMetricsCollector(log), monitoring.NewHealth("test", log))
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestUnknownRouteRendersNotFoundError(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "NOT_FOUND"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsCountRequests(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `dietcoach_http_requests_total{method="GET",path="/live",status_code="200"} 1`)
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, s.Shutdown(ctx))
}
