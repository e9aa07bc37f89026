package handlers

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/protocol"
	"github.com/alejandrade/twitch-bot/internal/twitch"
)

// ChatService is the chat-bot surface the twitch handler needs.
type ChatService interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Connected() bool
	SubscribeChat(fn func(twitch.ChatMessage)) *twitch.Subscription
}

// ChatNotifier forwards chat messages to connected clients.
type ChatNotifier interface {
	ChatMessage(m twitch.ChatMessage)
}

// AuthNotifier announces authentication state changes to connected clients.
type AuthNotifier interface {
	AuthStateChanged(state twitch.AuthState)
}

// CredentialSink receives bot credentials after a successful OAuth
// exchange.
type CredentialSink interface {
	SetCredentials(creds twitch.Credentials) error
}

// failure builds the domain-specific failure body under the operation's
// own response tag, preserving which operation failed.
func failure(eventType string, clock clockwork.Clock, err error) (protocol.Envelope, error) {
	return protocol.New(eventType, protocol.OperationFailure{
		Success:   false,
		Error:     err.Error(),
		Timestamp: protocol.Timestamp(clock.Now()),
	})
}
