package handlers

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/obs"
	"github.com/alejandrade/twitch-bot/internal/protocol"
)

// ToggleStreamHandler flips the OBS streaming output: start when stopped,
// stop when started. The response reports the resulting state.
type ToggleStreamHandler struct {
	controller obs.Controller
	clock      clockwork.Clock
}

func NewToggleStreamHandler(controller obs.Controller, clock clockwork.Clock) *ToggleStreamHandler {
	return &ToggleStreamHandler{controller: controller, clock: clock}
}

func (h *ToggleStreamHandler) EventType() string {
	return protocol.EventToggleStream
}

func (h *ToggleStreamHandler) CanHandle(env protocol.Envelope) bool {
	return env.EventType == protocol.EventToggleStream
}

func (h *ToggleStreamHandler) Handle(ctx context.Context, env protocol.Envelope, conn dispatch.Conn) (protocol.Envelope, error) {
	streaming, err := h.controller.IsStreaming(ctx)
	if err != nil {
		return failure(protocol.EventOBSState, h.clock, err)
	}

	if streaming {
		if err := h.controller.StopStreaming(ctx); err != nil {
			return failure(protocol.EventOBSState, h.clock, err)
		}
	} else {
		if err := h.controller.StartStreaming(ctx); err != nil {
			return failure(protocol.EventOBSState, h.clock, err)
		}
	}

	return protocol.New(protocol.EventOBSState, protocol.OBSStateBody{
		Streaming: !streaming,
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}
