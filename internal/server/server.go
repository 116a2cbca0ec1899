package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-forecast-service/internal/config"
	"github.com/vzahanych/weather-forecast-service/internal/forecast"
	"github.com/vzahanych/weather-forecast-service/internal/geo"
	"github.com/vzahanych/weather-forecast-service/internal/provider"
	"github.com/vzahanych/weather-forecast-service/internal/server/handlers"
	"github.com/vzahanych/weather-forecast-service/internal/server/middlewares"
	"github.com/vzahanych/weather-forecast-service/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	engine  *gin.Engine
	server  *http.Server
	core    *forecast.Engine
	metrics *middlewares.Metrics
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func New(logger *zap.Logger, tele *telemetry.Telemetry) (*Server, error) {
	cfg := config.GetConfig()

	resolver, err := geo.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("build coordinate resolver: %w", err)
	}

	providers := provider.FromConfig(cfg.Forecast, logger)
	if len(providers) == 0 {
		return nil, errors.New("no weather providers enabled")
	}

	metrics := middlewares.NewMetrics()

	core := forecast.NewEngine(resolver, providers, logger, tele)
	core.SetMetricsRecorder(metrics)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(tele))
	engine.Use(metrics.Handler())

	s := &Server{
		engine:  engine,
		core:    core,
		metrics: metrics,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	fh := handlers.NewForecastHandler(s.core, s.logger)
	s.engine.GET("/current", fh.Current)
	s.engine.GET("/forecast", fh.Forecast)

	hh := handlers.NewHealthHandler(s.logger)
	s.engine.GET("/health", hh.Health)
	s.engine.GET("/health/live", hh.Liveness)
	s.engine.GET("/health/ready", hh.Readiness)

	s.engine.GET("/metrics", gin.WrapH(s.metrics.HTTPHandler()))
}

func (s *Server) Start() error {
	cfg := config.GetConfig()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
