package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

// Options carries everything the server needs besides the logger.
type Options struct {
	api.Dependencies
	// Redis is optional and only used for the health report here.
	Redis *redis.Client
}

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	http     *http.Server
	cfg      *config.Config
	log      *zap.Logger
	opts     Options
	registry *prometheus.Registry
}

// New builds the gin engine with the middleware chain and mounts the API under /api.
func New(opts Options, log *zap.Logger) *Server {
	cfg := opts.Config
	if cfg.Environment.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(cfg.CORSOrigins),
		metrics.Middleware(),
	)
	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())

	s := &Server{
		router:   router,
		cfg:      cfg,
		log:      log,
		opts:     opts,
		registry: registry,
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	if cfg.StorageBackend == config.StorageLocal && strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(strings.TrimRight(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	api.RegisterRoutes(router.Group("/api"), opts.Dependencies)
	return s
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}

	sqlDB, err := s.opts.DB.DB()
	if err == nil {
		err = database.HealthCheck(ctx, sqlDB)
	}
	if err != nil {
		logger.FromGin(c).Warn("database health check failed", zap.Error(err))
		report["database"] = "unavailable"
		report["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	if s.opts.Redis != nil {
		report["redis"] = "ok"
		if err := s.opts.Redis.Ping(ctx).Err(); err != nil {
			logger.FromGin(c).Warn("redis health check failed", zap.Error(err))
			report["redis"] = "unavailable"
			report["status"] = "degraded"
		}
	}

	c.JSON(status, report)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.ServerHost, s.cfg.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
