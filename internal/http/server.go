// Package http provides the API server and its router.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/allisson/trustcore/internal/audit/http"
	"github.com/allisson/trustcore/internal/config"
	"github.com/allisson/trustcore/internal/metrics"
	permissionHTTP "github.com/allisson/trustcore/internal/permission/http"
	"github.com/allisson/trustcore/internal/principal"
	totpHTTP "github.com/allisson/trustcore/internal/totp/http"
)

// Server represents the API server.
type Server struct {
	db        *sql.DB
	storeOnly bool
	server    *http.Server
	router    *gin.Engine
	logger    *slog.Logger
}

// NewServer creates a new API server. A nil db makes readiness fail until the server is
// switched to store-only mode by SetupRouter.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: newHTTPServer(host, port, nil),
	}
}

func newHTTPServer(host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// listenAndServe blocks until srv stops; a graceful Shutdown is not an error.
func listenAndServe(srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// SetupRouter registers middleware and routes. auditHandler is nil when no database is
// configured, in which case the audit routes are omitted and readiness skips the
// database check.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	totpHandler *totpHTTP.TOTPHandler,
	permissionHandler *permissionHTTP.PermissionRequestHandler,
	auditHandler *auditHTTP.AuditLogHandler,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())
	s.storeOnly = !cfg.HasDatabase()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSOrigins(), s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(principal.HeaderMiddleware(s.logger))
	if cfg.RateLimitEnabled {
		v1.Use(principal.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	totp := v1.Group("/totp")
	{
		totp.POST("/setup", totpHandler.SetupHandler)
		totp.POST("/verify", totpHandler.VerifyHandler)
		totp.POST("/enable", totpHandler.EnableHandler)
		totp.POST("/disable", totpHandler.DisableHandler)
		totp.POST("/recovery-codes", totpHandler.RecoveryCodesHandler)
		totp.POST("/recovery-disable", totpHandler.RecoveryDisableHandler)
		totp.GET("/status", totpHandler.StatusHandler)
	}

	requests := v1.Group("/permission-requests")
	{
		requests.POST("", permissionHandler.CreateHandler)
		requests.GET("", permissionHandler.ListHandler)
		requests.GET("/:id", permissionHandler.GetHandler)
		requests.POST("/:id/review", permissionHandler.ReviewHandler)
	}
	v1.GET("/grants/active", permissionHandler.ActiveGrantHandler)

	if auditHandler != nil {
		v1.GET("/audit-logs", auditHandler.ListHandler)
	}

	s.router = router
}

// GetHandler returns the configured router, or nil before SetupRouter.
func (s *Server) GetHandler() http.Handler {
	if s.router == nil {
		return nil
	}
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router
	return listenAndServe(s.server, "http server", s.logger)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if s.storeOnly {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"components": gin.H{"store": "ok"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.db.PingContext(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
