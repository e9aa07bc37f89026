// Package events translates domain events from the external collaborators
// into wire envelopes and delegates delivery to the connection hub. It
// holds no state of its own.
package events

import (
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/obs"
	"github.com/alejandrade/twitch-bot/internal/protocol"
	"github.com/alejandrade/twitch-bot/internal/twitch"
)

// Sender is the delivery surface the fan-out needs from the hub. Tests
// substitute a capturing stub.
type Sender interface {
	Broadcast(data []byte)
	SendTo(conn *websocket.Conn, data []byte) error
}

// Fanout converts domain events into wire messages, stamping a generation
// timestamp on each, and pushes them to all connected clients.
type Fanout struct {
	sender Sender
	clock  clockwork.Clock
}

func NewFanout(sender Sender, clock clockwork.Clock) *Fanout {
	return &Fanout{sender: sender, clock: clock}
}

// StreamStateChanged broadcasts the new streaming state to all clients.
func (f *Fanout) StreamStateChanged(change obs.StateChange) {
	f.broadcastEnvelope(protocol.EventOBSState, protocol.OBSStateBody{
		Streaming: change.Streaming,
		Timestamp: f.timestamp(),
	})
}

// InitialState sends the current streaming state to one newly connected
// client without touching the rest of the live set.
func (f *Fanout) InitialState(conn *websocket.Conn, streaming bool) error {
	env, err := protocol.New(protocol.EventOBSState, protocol.OBSStateBody{
		Streaming: streaming,
		Timestamp: f.timestamp(),
	})
	if err != nil {
		return err
	}
	data, err := protocol.Marshal(env)
	if err != nil {
		return err
	}
	return f.sender.SendTo(conn, data)
}

// AuthStateChanged broadcasts the new authentication state. The access
// token never leaves the server.
func (f *Fanout) AuthStateChanged(state twitch.AuthState) {
	body := protocol.TwitchAuthStateBody{
		IsAuthenticated: state.IsAuthenticated,
		Username:        state.Username,
		Channel:         state.Channel,
		Timestamp:       f.timestamp(),
	}
	if !state.ExpiresAt.IsZero() {
		body.ExpiresAt = protocol.Timestamp(state.ExpiresAt)
	}
	f.broadcastEnvelope(protocol.EventTwitchAuthState, body)
}

// ChatMessage broadcasts one chat line.
func (f *Fanout) ChatMessage(m twitch.ChatMessage) {
	f.broadcastEvent(protocol.TypeChatMessage, protocol.ChatMessageData{
		Username:  m.Username,
		Channel:   m.Channel,
		Message:   m.Message,
		Timestamp: f.timestamp(),
	})
}

// Subscription broadcasts a subscription notification.
func (f *Fanout) Subscription(s twitch.SubscriptionEvent) {
	f.broadcastEvent(protocol.TypeSubscription, protocol.SubscriptionData{
		Username:  s.Username,
		Plan:      s.Plan,
		Months:    s.Months,
		Message:   s.Message,
		Timestamp: f.timestamp(),
	})
}

// Bits broadcasts a cheer notification.
func (f *Fanout) Bits(b twitch.BitsEvent) {
	f.broadcastEvent(protocol.TypeBits, protocol.BitsData{
		Username:  b.Username,
		Amount:    b.Amount,
		Message:   b.Message,
		Timestamp: f.timestamp(),
	})
}

// Follow broadcasts a new-follower notification.
func (f *Fanout) Follow(fl twitch.FollowEvent) {
	f.broadcastEvent(protocol.TypeFollow, protocol.FollowData{
		Username:  fl.Username,
		Timestamp: f.timestamp(),
	})
}

// Raid broadcasts an incoming raid notification.
func (f *Fanout) Raid(r twitch.RaidEvent) {
	f.broadcastEvent(protocol.TypeRaid, protocol.RaidData{
		Username:  r.Username,
		Viewers:   r.Viewers,
		Timestamp: f.timestamp(),
	})
}

// Host broadcasts an incoming host notification.
func (f *Fanout) Host(h twitch.HostEvent) {
	f.broadcastEvent(protocol.TypeHost, protocol.HostData{
		Username:  h.Username,
		Viewers:   h.Viewers,
		Timestamp: f.timestamp(),
	})
}

func (f *Fanout) broadcastEnvelope(eventType string, body any) {
	env, err := protocol.New(eventType, body)
	if err != nil {
		slog.Error("Failed to build envelope", "event_type", eventType, "error", err)
		return
	}
	data, err := protocol.Marshal(env)
	if err != nil {
		slog.Error("Failed to marshal envelope", "event_type", eventType, "error", err)
		return
	}
	f.sender.Broadcast(data)
}

func (f *Fanout) broadcastEvent(eventType string, payload any) {
	ev, err := protocol.NewEvent(eventType, payload)
	if err != nil {
		slog.Error("Failed to build event", "type", eventType, "error", err)
		return
	}
	data, err := protocol.MarshalEvent(ev)
	if err != nil {
		slog.Error("Failed to marshal event", "type", eventType, "error", err)
		return
	}
	f.sender.Broadcast(data)
}

func (f *Fanout) timestamp() string {
	return protocol.Timestamp(f.clock.Now())
}
