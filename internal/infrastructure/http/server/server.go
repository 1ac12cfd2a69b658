// Package server provides the HTTP server for the meal planning API
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/config"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/handlers"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/middleware"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/monitoring"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	engine *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mw *middleware.Middleware,
	h *handlers.Handlers,
	metrics *monitoring.MetricsCollector,
	health *monitoring.Health,
) *Server {
	s := &Server{
		config: cfg,
		logger: logger.Named("server"),
	}

	s.engine = s.setupRouter(mw, h, metrics, health)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port)),
		Handler:           s.engine,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

func (s *Server) setupRouter(
	mw *middleware.Middleware,
	h *handlers.Handlers,
	metrics *monitoring.MetricsCollector,
	health *monitoring.Health,
) *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if len(s.config.Server.TrustedProxies) > 0 {
		if err := r.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
			s.logger.Warn("Invalid trusted proxies", zap.Error(err))
		}
	}

	r.Use(
		mw.RequestID(),
		mw.Recovery(),
		mw.Tracing(),
		mw.Logger(),
	)
	if metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Use(metrics.HTTPMiddleware())
	}
	r.Use(
		mw.Security(),
		mw.CORS(),
		mw.RateLimit(),
		mw.Compression(),
		mw.ErrorHandler(),
	)

	mon := s.config.Monitoring
	r.GET(mon.HealthCheckPath, health.HealthHandler())
	r.GET(mon.ReadinessPath, health.ReadyHandler())
	r.GET(mon.LivenessPath, health.LiveHandler())
	if metrics != nil && mon.EnableMetrics {
		r.GET(mon.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	h.RegisterRoutes(r, mw.RequireToken())

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(errors.NewNotFoundError("route"))
	})

	return r
}

// Handler exposes the configured router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if s.config.Server.EnableHTTP2 {
		if err := http2.ConfigureServer(s.server, &http2.Server{IdleTimeout: s.config.Server.IdleTimeout}); err != nil {
			s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
		}
	}

	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
