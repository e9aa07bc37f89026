package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/alejandrade/twitch-bot/internal/protocol"
	"github.com/alejandrade/twitch-bot/internal/twitch"
)

func testClock() clockwork.Clock {
	return clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}

func envelope(t *testing.T, eventType, body string) protocol.Envelope {
	t.Helper()
	return protocol.Envelope{EventType: eventType, EventBody: json.RawMessage(body)}
}

func decodeBody[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var body T
	require.NoError(t, json.Unmarshal(env.EventBody, &body))
	return body
}

// fakeChat is a scriptable ChatService.
type fakeChat struct {
	connected     bool
	connectErr    error
	disconnectErr error
	connectCalls  int
	chatListeners int
}

func (f *fakeChat) Connect(ctx context.Context) error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeChat) Disconnect() error {
	if f.disconnectErr != nil {
		return f.disconnectErr
	}
	f.connected = false
	return nil
}

func (f *fakeChat) Connected() bool { return f.connected }

func (f *fakeChat) SubscribeChat(fn func(twitch.ChatMessage)) *twitch.Subscription {
	f.chatListeners++
	return twitch.NewSubscription(func() { f.chatListeners-- })
}

// fakeNotifier records forwarded chat messages and auth state changes.
type fakeNotifier struct {
	chatMessages []twitch.ChatMessage
	authStates   []twitch.AuthState
}

func (f *fakeNotifier) ChatMessage(m twitch.ChatMessage) {
	f.chatMessages = append(f.chatMessages, m)
}

func (f *fakeNotifier) AuthStateChanged(state twitch.AuthState) {
	f.authStates = append(f.authStates, state)
}
