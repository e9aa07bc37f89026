package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/protocol"
	"github.com/alejandrade/twitch-bot/internal/twitch"
)

// TwitchHandler processes "twitch" requests: connect and disconnect the
// chat bridge, and toggle the chat-message stream to clients.
type TwitchHandler struct {
	chat     ChatService
	notifier ChatNotifier
	clock    clockwork.Clock

	mu      sync.Mutex
	chatSub *twitch.Subscription
}

func NewTwitchHandler(chat ChatService, notifier ChatNotifier, clock clockwork.Clock) *TwitchHandler {
	return &TwitchHandler{chat: chat, notifier: notifier, clock: clock}
}

func (h *TwitchHandler) EventType() string {
	return protocol.EventTwitch
}

func (h *TwitchHandler) CanHandle(env protocol.Envelope) bool {
	return env.EventType == protocol.EventTwitch
}

func (h *TwitchHandler) Handle(ctx context.Context, env protocol.Envelope, conn dispatch.Conn) (protocol.Envelope, error) {
	var req protocol.TwitchRequest
	if err := json.Unmarshal(env.EventBody, &req); err != nil {
		return failure(protocol.EventTwitchConnectResponse, h.clock, fmt.Errorf("invalid twitch request body: %w", err))
	}

	switch req.Action {
	case protocol.TwitchActionConnect:
		return h.connect(ctx)
	case protocol.TwitchActionDisconnect:
		return h.disconnect()
	case protocol.TwitchActionToggleChat:
		return h.toggleChat()
	default:
		return protocol.New(protocol.EventError, protocol.ErrorBody{
			Message:   fmt.Sprintf("unknown twitch action: %q", req.Action),
			EventType: env.EventType,
			Timestamp: protocol.Timestamp(h.clock.Now()),
		})
	}
}

func (h *TwitchHandler) connect(ctx context.Context) (protocol.Envelope, error) {
	if err := h.chat.Connect(ctx); err != nil {
		return failure(protocol.EventTwitchConnectResponse, h.clock, err)
	}
	return protocol.New(protocol.EventTwitchConnectResponse, protocol.TwitchActionResult{
		Success:   true,
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}

func (h *TwitchHandler) disconnect() (protocol.Envelope, error) {
	h.mu.Lock()
	if h.chatSub != nil {
		h.chatSub.Cancel()
		h.chatSub = nil
	}
	h.mu.Unlock()

	if err := h.chat.Disconnect(); err != nil {
		return failure(protocol.EventTwitchDisconnectResponse, h.clock, err)
	}
	return protocol.New(protocol.EventTwitchDisconnectResponse, protocol.TwitchActionResult{
		Success:   true,
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}

func (h *TwitchHandler) toggleChat() (protocol.Envelope, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var enabled bool
	if h.chatSub == nil {
		if !h.chat.Connected() {
			return failure(protocol.EventTwitchToggleChatResponse, h.clock, fmt.Errorf("not connected to Twitch chat"))
		}
		h.chatSub = h.chat.SubscribeChat(h.notifier.ChatMessage)
		enabled = true
	} else {
		h.chatSub.Cancel()
		h.chatSub = nil
		enabled = false
	}

	return protocol.New(protocol.EventTwitchToggleChatResponse, protocol.TwitchActionResult{
		Success:   true,
		Enabled:   &enabled,
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}
