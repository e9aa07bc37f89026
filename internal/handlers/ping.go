package handlers

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/protocol"
)

// PingHandler echoes the request body back inside a pong response.
type PingHandler struct {
	clock clockwork.Clock
}

func NewPingHandler(clock clockwork.Clock) *PingHandler {
	return &PingHandler{clock: clock}
}

func (h *PingHandler) EventType() string {
	return protocol.EventPing
}

func (h *PingHandler) CanHandle(env protocol.Envelope) bool {
	return env.EventType == protocol.EventPing
}

func (h *PingHandler) Handle(ctx context.Context, env protocol.Envelope, conn dispatch.Conn) (protocol.Envelope, error) {
	return protocol.New(protocol.EventPongResponse, protocol.PongResponse{
		OriginalBody: env.EventBody,
		Timestamp:    protocol.Timestamp(h.clock.Now()),
	})
}
