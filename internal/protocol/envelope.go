package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Request event types accepted from clients.
const (
	EventHello        = "hello"
	EventPing         = "ping"
	EventToggleStream = "toggle-stream"
	EventTwitch       = "twitch"
	EventTwitchAuth   = "twitch_auth"
)

// Response event types sent back to clients. Each tag is bound to exactly
// one body shape and is never reused.
const (
	EventHelloResponse            = "hello-response"
	EventPongResponse             = "pong-response"
	EventError                    = "error"
	EventOBSState                 = "obs-state"
	EventTwitchConnectResponse    = "twitch-connect-response"
	EventTwitchDisconnectResponse = "twitch-disconnect-response"
	EventTwitchToggleChatResponse = "twitch-toggle-chat-response"
	EventTwitchAuthResponse       = "twitch_auth-response"
	EventTwitchAuthState          = "twitch_auth_state"
)

// Pushed event types. These live in a separate tag space from the
// request/response envelopes and never correlate to a request.
const (
	TypeChatMessage  = "twitch_chat_message"
	TypeSubscription = "twitch_subscription"
	TypeBits         = "twitch_bits"
	TypeFollow       = "twitch_follow"
	TypeRaid         = "twitch_raid"
	TypeHost         = "twitch_host"
)

// Envelope is the request/response wire object. EventBody holds the raw
// JSON of the body so each handler can decode its own shape.
type Envelope struct {
	EventType string          `json:"eventType"`
	EventBody json.RawMessage `json:"eventBody"`
}

// Event is the unsolicited server-pushed wire object.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseError reports a raw text message that does not conform to the
// envelope contract. Raw carries the offending input for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid envelope: %v", e.Err)
	}
	return "invalid envelope"
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes a raw text frame into an Envelope. The frame is valid only
// if it is a JSON object with a non-empty string eventType and an object
// eventBody; anything else yields a *ParseError carrying the raw text.
func Parse(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, &ParseError{Raw: string(raw), Err: err}
	}
	if env.EventType == "" {
		return Envelope{}, &ParseError{Raw: string(raw), Err: fmt.Errorf("missing eventType")}
	}
	if !isObject(env.EventBody) {
		return Envelope{}, &ParseError{Raw: string(raw), Err: fmt.Errorf("eventBody must be an object")}
	}
	return env, nil
}

// Marshal serializes an envelope to its wire form. It is the exact inverse
// of Parse for every envelope built by New.
func Marshal(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// New builds an envelope from an event type and a body value. The body is
// marshaled once at construction; the envelope is immutable afterwards.
func New(eventType string, body any) (Envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s body: %w", eventType, err)
	}
	return Envelope{EventType: eventType, EventBody: data}, nil
}

// NewEvent builds a pushed event from a type tag and a data value.
func NewEvent(eventType string, data any) (Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s data: %w", eventType, err)
	}
	return Event{Type: eventType, Data: payload}, nil
}

// MarshalEvent serializes a pushed event to its wire form.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
