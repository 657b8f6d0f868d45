package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/dashboard"
	"github.com/vaersinsight/vaersinsight/pkg/logging"
	"github.com/vaersinsight/vaersinsight/pkg/models"
)

// RetrainStatusSource reports the state of scheduled retraining
type RetrainStatusSource interface {
	Status() models.RetrainStatus
}

// Server provides HTTP API endpoints for the dashboard
type Server struct {
	dashboard *dashboard.Service
	retrain   RetrainStatusSource
	port      string
	echo      *echo.Echo
	logger    *zap.Logger
}

// NewServer creates a new API server
func NewServer(svc *dashboard.Service, port string, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		dashboard: svc,
		port:      port,
		echo:      e,
		logger:    logger,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	s.registerRoutes()
	return s
}

// registerRoutes sets up the HTTP routes
func (s *Server) registerRoutes() {
	s.echo.GET("/health", handleHealth)
	s.echo.GET("/ready", handleReady(s.dashboard))

	api := s.echo.Group("/api")
	api.GET("/dashboard", handleDashboard(s.dashboard))
	api.GET("/preview", handlePreview(s.dashboard))
	api.GET("/vax-types", handleVaxTypes(s.dashboard))
	api.GET("/model", handleModelInfo(s.dashboard))
	api.POST("/predict", handlePredict(s.dashboard))
	api.GET("/retrain", s.handleRetrainStatus)
}

// SetRetrainStatus exposes scheduled retraining on GET /api/retrain.
// Without a source the route reports retraining as not scheduled.
func (s *Server) SetRetrainStatus(source RetrainStatusSource) {
	s.retrain = source
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.port)
	s.logger.Info("Starting API server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			logger.Info("Request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)))
			return nil
		}
	}
}
