package handlers

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/protocol"
)

// HelloHandler answers the connectivity smoke-test request.
type HelloHandler struct {
	clock clockwork.Clock
}

func NewHelloHandler(clock clockwork.Clock) *HelloHandler {
	return &HelloHandler{clock: clock}
}

func (h *HelloHandler) EventType() string {
	return protocol.EventHello
}

func (h *HelloHandler) CanHandle(env protocol.Envelope) bool {
	return env.EventType == protocol.EventHello
}

func (h *HelloHandler) Handle(ctx context.Context, env protocol.Envelope, conn dispatch.Conn) (protocol.Envelope, error) {
	return protocol.New(protocol.EventHelloResponse, protocol.HelloResponse{
		Message:   "world",
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}
