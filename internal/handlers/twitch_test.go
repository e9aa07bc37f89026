package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrade/twitch-bot/internal/protocol"
)

func TestTwitchHandler_Connect(t *testing.T) {
	chat := &fakeChat{}
	h := NewTwitchHandler(chat, &fakeNotifier{}, testClock())

	resp, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"connect"}`), nil)
	require.NoError(t, err)

	assert.Equal(t, protocol.EventTwitchConnectResponse, resp.EventType)
	body := decodeBody[protocol.TwitchActionResult](t, resp)
	assert.True(t, body.Success)
	assert.Nil(t, body.Enabled)
	assert.Equal(t, 1, chat.connectCalls)
}

func TestTwitchHandler_ConnectFailure(t *testing.T) {
	chat := &fakeChat{connectErr: fmt.Errorf("no credentials configured")}
	h := NewTwitchHandler(chat, &fakeNotifier{}, testClock())

	resp, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"connect"}`), nil)
	require.NoError(t, err)

	assert.Equal(t, protocol.EventTwitchConnectResponse, resp.EventType)
	body := decodeBody[protocol.OperationFailure](t, resp)
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "no credentials configured")
}

func TestTwitchHandler_Disconnect(t *testing.T) {
	chat := &fakeChat{connected: true}
	h := NewTwitchHandler(chat, &fakeNotifier{}, testClock())

	resp, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"disconnect"}`), nil)
	require.NoError(t, err)

	assert.Equal(t, protocol.EventTwitchDisconnectResponse, resp.EventType)
	body := decodeBody[protocol.TwitchActionResult](t, resp)
	assert.True(t, body.Success)
	assert.False(t, chat.connected)
}

func TestTwitchHandler_ToggleChatRequiresConnection(t *testing.T) {
	chat := &fakeChat{connected: false}
	h := NewTwitchHandler(chat, &fakeNotifier{}, testClock())

	resp, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"toggle-chat"}`), nil)
	require.NoError(t, err)

	assert.Equal(t, protocol.EventTwitchToggleChatResponse, resp.EventType)
	body := decodeBody[protocol.OperationFailure](t, resp)
	assert.False(t, body.Success)
	assert.Equal(t, 0, chat.chatListeners)
}

func TestTwitchHandler_ToggleChatFlipsSubscription(t *testing.T) {
	chat := &fakeChat{connected: true}
	h := NewTwitchHandler(chat, &fakeNotifier{}, testClock())

	// First toggle subscribes.
	resp, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"toggle-chat"}`), nil)
	require.NoError(t, err)
	body := decodeBody[protocol.TwitchActionResult](t, resp)
	require.True(t, body.Success)
	require.NotNil(t, body.Enabled)
	assert.True(t, *body.Enabled)
	assert.Equal(t, 1, chat.chatListeners)

	// Second toggle cancels the subscription.
	resp, err = h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"toggle-chat"}`), nil)
	require.NoError(t, err)
	body = decodeBody[protocol.TwitchActionResult](t, resp)
	require.True(t, body.Success)
	require.NotNil(t, body.Enabled)
	assert.False(t, *body.Enabled)
	assert.Equal(t, 0, chat.chatListeners)
}

func TestTwitchHandler_DisconnectCancelsChatSubscription(t *testing.T) {
	chat := &fakeChat{connected: true}
	h := NewTwitchHandler(chat, &fakeNotifier{}, testClock())

	_, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"toggle-chat"}`), nil)
	require.NoError(t, err)
	require.Equal(t, 1, chat.chatListeners)

	_, err = h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"disconnect"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, chat.chatListeners)
}

func TestTwitchHandler_UnknownAction(t *testing.T) {
	h := NewTwitchHandler(&fakeChat{}, &fakeNotifier{}, testClock())

	resp, err := h.Handle(context.Background(), envelope(t, protocol.EventTwitch, `{"action":"reboot"}`), nil)
	require.NoError(t, err)

	assert.Equal(t, protocol.EventError, resp.EventType)
	body := decodeBody[protocol.ErrorBody](t, resp)
	assert.Contains(t, body.Message, "reboot")
	assert.Equal(t, protocol.EventTwitch, body.EventType)
}
