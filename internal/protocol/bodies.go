package protocol

import (
	"encoding/json"
	"time"
)

// Timestamp formats a generation time the way every wire body carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// HelloRequest is the body of a "hello" request.
type HelloRequest struct {
	UserMessage string `json:"userMessage"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// HelloResponse is the body of a "hello-response".
type HelloResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// PongResponse echoes the original ping body back to the sender.
type PongResponse struct {
	OriginalBody json.RawMessage `json:"originalBody"`
	Timestamp    string          `json:"timestamp"`
}

// ErrorBody is the body of the generic "error" envelope. Only the fields
// relevant to the failure are populated; absent fields are omitted rather
// than emitted as null.
type ErrorBody struct {
	Message         string `json:"message,omitempty"`
	OriginalMessage string `json:"originalMessage,omitempty"`
	EventType       string `json:"eventType,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// OBSStateBody reports the current streaming state.
type OBSStateBody struct {
	Streaming bool   `json:"streaming"`
	Timestamp string `json:"timestamp"`
}

// OperationFailure is the domain-specific failure shape: a handler that
// cannot complete its operation answers under its own response tag with
// success=false and a human-readable error instead of the generic "error"
// envelope.
type OperationFailure struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// TwitchRequest is the body of a "twitch" request.
type TwitchRequest struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
}

// Actions accepted inside a "twitch" request body.
const (
	TwitchActionConnect    = "connect"
	TwitchActionDisconnect = "disconnect"
	TwitchActionToggleChat = "toggle-chat"
)

// TwitchActionResult is the success body shared by the twitch-connect,
// twitch-disconnect and twitch-toggle-chat responses.
type TwitchActionResult struct {
	Success   bool   `json:"success"`
	Enabled   *bool  `json:"enabled,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TwitchAuthRequest is the body of a "twitch_auth" request. Without a code
// the client is asking for the authorization URL; with a code it is
// completing the exchange.
type TwitchAuthRequest struct {
	Code string `json:"code,omitempty"`
}

// TwitchAuthResponse is the body of a "twitch_auth-response".
type TwitchAuthResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TwitchAuthStateBody is the body of a "twitch_auth_state" envelope,
// broadcast whenever the authentication state changes.
type TwitchAuthStateBody struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username,omitempty"`
	Channel         string `json:"channel,omitempty"`
	ExpiresAt       string `json:"expiresAt,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// ChatMessageData is the payload of a twitch_chat_message event.
type ChatMessageData struct {
	Username  string `json:"username"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// SubscriptionData is the payload of a twitch_subscription event.
type SubscriptionData struct {
	Username  string `json:"username"`
	Plan      string `json:"plan,omitempty"`
	Months    int    `json:"months,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// BitsData is the payload of a twitch_bits event.
type BitsData struct {
	Username  string `json:"username"`
	Amount    int    `json:"amount"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// FollowData is the payload of a twitch_follow event.
type FollowData struct {
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

// RaidData is the payload of a twitch_raid event.
type RaidData struct {
	Username  string `json:"username"`
	Viewers   int    `json:"viewers"`
	Timestamp string `json:"timestamp"`
}

// HostData is the payload of a twitch_host event.
type HostData struct {
	Username  string `json:"username"`
	Viewers   int    `json:"viewers"`
	Timestamp string `json:"timestamp"`
}
