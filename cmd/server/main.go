package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/broadcast"
	"github.com/alejandrade/twitch-bot/internal/config"
	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/events"
	"github.com/alejandrade/twitch-bot/internal/handlers"
	"github.com/alejandrade/twitch-bot/internal/logging"
	"github.com/alejandrade/twitch-bot/internal/obs"
	"github.com/alejandrade/twitch-bot/internal/server"
	"github.com/alejandrade/twitch-bot/internal/twitch"
)

const (
	obsConnectTimeout = 10 * time.Second
	shutdownGrace     = 2 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupOBS(cfg *config.Config, fanout *events.Fanout) *obs.Client {
	client := obs.NewClient(cfg.OBSWebsocketURL, cfg.OBSPassword)

	ctx, cancel := context.WithTimeout(context.Background(), obsConnectTimeout)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		slog.Warn("OBS connection failed, stream control degraded until restart", "error", err)
	}

	client.SubscribeState(fanout.StreamStateChanged)
	return client
}

func setupBridge(fanout *events.Fanout) *twitch.Bridge {
	bridge := twitch.NewBridge()

	// Notification events are always forwarded; the chat-message stream
	// is toggled per client request by the twitch handler.
	bridge.SubscribeSubscriptions(fanout.Subscription)
	bridge.SubscribeBits(fanout.Bits)
	bridge.SubscribeRaids(fanout.Raid)

	return bridge
}

func setupRegistry(cfg *config.Config, clock clockwork.Clock, fanout *events.Fanout, bridge *twitch.Bridge, controller *obs.Client) *dispatch.Registry {
	registry := dispatch.NewRegistry(clock)

	registry.Register(handlers.NewHelloHandler(clock))
	registry.Register(handlers.NewPingHandler(clock))
	if controller != nil {
		registry.Register(handlers.NewToggleStreamHandler(controller, clock))
	}
	registry.Register(handlers.NewTwitchHandler(bridge, fanout, clock))
	if cfg.TwitchEnabled() {
		oauthClient := twitch.NewOAuthClient(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchRedirectURI, clock)
		registry.Register(handlers.NewTwitchAuthHandler(oauthClient, bridge, fanout, clock, cfg.TwitchChannel))
	}

	return registry
}

func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub, bridge *twitch.Bridge, obsClient *obs.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Force exit if graceful close stalls past the grace window.
		force := time.AfterFunc(2*shutdownGrace, func() {
			slog.Error("Graceful shutdown stalled, forcing exit")
			os.Exit(1)
		})
		defer force.Stop()

		if err := bridge.Disconnect(); err != nil {
			logging.WithError(err).Error("Chat bridge disconnect error")
		}
		if obsClient != nil {
			if err := obsClient.Close(); err != nil {
				logging.WithError(err).Error("OBS close error")
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.WithError(err).Error("Server shutdown error")
		}

		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	hub := broadcast.NewHub(clock)
	fanout := events.NewFanout(hub, clock)

	var obsClient *obs.Client
	if cfg.OBSEnabled() {
		obsClient = setupOBS(cfg, fanout)
	}

	bridge := setupBridge(fanout)
	registry := setupRegistry(cfg, clock, fanout, bridge, obsClient)

	// Pass nil explicitly to avoid a typed-nil interface
	var srv *server.Server
	if obsClient != nil {
		srv = server.NewServer(cfg, registry, hub, fanout, obsClient)
	} else {
		srv = server.NewServer(cfg, registry, hub, fanout, nil)
	}

	done := runGracefulShutdown(srv, hub, bridge, obsClient)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
