package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/dispatch"
	"github.com/alejandrade/twitch-bot/internal/protocol"
	"github.com/alejandrade/twitch-bot/internal/twitch"
)

// TwitchAuthHandler drives the OAuth flow over the socket: without a code
// it hands back the authorization URL, with a code it completes the
// exchange, stores the bot credentials and announces the new auth state.
type TwitchAuthHandler struct {
	oauth    twitch.OAuthClient
	creds    CredentialSink
	notifier AuthNotifier
	clock    clockwork.Clock
	channel  string
}

// NewTwitchAuthHandler creates the auth handler. channel optionally pins
// the chat channel to join; when empty the authenticated user's own
// channel is used.
func NewTwitchAuthHandler(oauth twitch.OAuthClient, creds CredentialSink, notifier AuthNotifier, clock clockwork.Clock, channel string) *TwitchAuthHandler {
	return &TwitchAuthHandler{oauth: oauth, creds: creds, notifier: notifier, clock: clock, channel: channel}
}

func (h *TwitchAuthHandler) EventType() string {
	return protocol.EventTwitchAuth
}

func (h *TwitchAuthHandler) CanHandle(env protocol.Envelope) bool {
	return env.EventType == protocol.EventTwitchAuth
}

func (h *TwitchAuthHandler) Handle(ctx context.Context, env protocol.Envelope, conn dispatch.Conn) (protocol.Envelope, error) {
	var req protocol.TwitchAuthRequest
	if err := json.Unmarshal(env.EventBody, &req); err != nil {
		return h.failureResponse(fmt.Errorf("invalid twitch_auth request body: %w", err))
	}

	if req.Code == "" {
		return h.authURLResponse()
	}
	return h.exchange(ctx, req.Code)
}

func (h *TwitchAuthHandler) authURLResponse() (protocol.Envelope, error) {
	state, err := generateOAuthState()
	if err != nil {
		return h.failureResponse(err)
	}
	return protocol.New(protocol.EventTwitchAuthResponse, protocol.TwitchAuthResponse{
		Success:   true,
		URL:       h.oauth.AuthURL(state),
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}

func (h *TwitchAuthHandler) exchange(ctx context.Context, code string) (protocol.Envelope, error) {
	state, err := h.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return h.failureResponse(err)
	}

	if h.channel != "" {
		state.Channel = h.channel
	}

	if err := h.creds.SetCredentials(twitch.Credentials{
		Username:    state.Username,
		AccessToken: state.AccessToken,
		Channel:     state.Channel,
	}); err != nil {
		return h.failureResponse(err)
	}

	h.notifier.AuthStateChanged(state)

	return protocol.New(protocol.EventTwitchAuthResponse, protocol.TwitchAuthResponse{
		Success:   true,
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}

func (h *TwitchAuthHandler) failureResponse(err error) (protocol.Envelope, error) {
	return protocol.New(protocol.EventTwitchAuthResponse, protocol.TwitchAuthResponse{
		Success:   false,
		Error:     err.Error(),
		Timestamp: protocol.Timestamp(h.clock.Now()),
	})
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
