package server

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/prometheus/client_golang/prometheus"
)

func (s *Server) registerRoutes() {
	// HTTP metrics go to a per-server registry so that constructing more
	// than one Server in a process never double-registers collectors.
	// The handler still gathers the process-wide application metrics.
	registry := prometheus.NewRegistry()
	s.echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "relay",
		Registerer: registry,
	}))
	s.echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{registry, prometheus.DefaultGatherer},
	}))

	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)

	// WebSocket endpoint
	s.echo.GET("/ws", s.handleWebSocket)
}
