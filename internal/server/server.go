package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/alejandrade/twitch-bot/internal/broadcast"
	"github.com/alejandrade/twitch-bot/internal/config"
	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/events"
	"github.com/alejandrade/twitch-bot/internal/obs"
)

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	registry   *dispatch.Registry
	hub        *broadcast.Hub
	fanout     *events.Fanout
	controller obs.Controller
}

// NewServer wires the HTTP layer. controller may be nil when OBS
// integration is not configured; the initial-state push then reports the
// stream as stopped.
func NewServer(cfg *config.Config, registry *dispatch.Registry, hub *broadcast.Hub, fanout *events.Fanout, controller obs.Controller) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:       e,
		config:     cfg,
		registry:   registry,
		hub:        hub,
		fanout:     fanout,
		controller: controller,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
