package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/alejandrade/twitch-bot/internal/broadcast"
	"github.com/alejandrade/twitch-bot/internal/metrics"
	"github.com/alejandrade/twitch-bot/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for browser sources
	},
}

// fallbackErrorFrame is sent when a response envelope cannot be
// serialized, so every inbound frame still gets exactly one response.
var fallbackErrorFrame = []byte(`{"eventType":"error","eventBody":{"message":"Internal server error"}}`)

// hubConn scopes a handler's out-of-band pushes to its own connection.
type hubConn struct {
	hub  *broadcast.Hub
	conn *websocket.Conn
}

func (h hubConn) Send(data []byte) error {
	return h.hub.SendTo(h.conn, data)
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	metrics.WebSocketConnectionsTotal.WithLabelValues("success").Inc()
	metrics.WebSocketConnectionsCurrent.Inc()
	defer metrics.WebSocketConnectionsCurrent.Dec()

	s.hub.Register(conn)
	defer s.hub.Unregister(conn)

	s.pushInitialState(c.Request().Context(), conn)

	sender := hubConn{hub: s.hub, conn: conn}

	// Frames are dispatched in arrival order, one at a time: a second
	// frame on the same connection is only read after the first has
	// produced its response.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		resp := s.registry.Dispatch(c.Request().Context(), raw, sender)
		data, err := protocol.Marshal(resp)
		if err != nil {
			slog.Error("Failed to marshal response envelope", "event_type", resp.EventType, "error", err)
			data = fallbackErrorFrame
		}
		if err := s.hub.SendTo(conn, data); err != nil {
			break
		}
	}

	return nil
}

// pushInitialState sends the current streaming state to the connection
// that just opened, and to it only.
func (s *Server) pushInitialState(ctx context.Context, conn *websocket.Conn) {
	streaming := false
	if s.controller != nil {
		state, err := s.controller.IsStreaming(ctx)
		if err != nil {
			slog.Warn("Could not read initial stream state", "error", err)
		} else {
			streaming = state
		}
	}

	if err := s.fanout.InitialState(conn, streaming); err != nil {
		slog.Warn("Failed to push initial state", "error", err)
	}
}
