package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ValidEnvelope(t *testing.T) {
	raw := []byte(`{"eventType":"hello","eventBody":{"userMessage":"hi"}}`)

	env, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello", env.EventType)
	assert.JSONEq(t, `{"userMessage":"hi"}`, string(env.EventBody))
}

func TestParse_MalformedJSON(t *testing.T) {
	raw := []byte(`{not json`)

	_, err := Parse(raw)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, `{not json`, parseErr.Raw)
}

func TestParse_RejectsNonConformingShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `[1,2,3]`},
		{"bare string", `"hello"`},
		{"missing eventType", `{"eventBody":{}}`},
		{"empty eventType", `{"eventType":"","eventBody":{}}`},
		{"non-string eventType", `{"eventType":42,"eventBody":{}}`},
		{"missing eventBody", `{"eventType":"hello"}`},
		{"eventBody not an object", `{"eventType":"hello","eventBody":[1]}`},
		{"null eventBody", `{"eventType":"hello","eventBody":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			require.Error(t, err)

			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.raw, parseErr.Raw)
		})
	}
}

func TestRoundTrip_AllVariants(t *testing.T) {
	now := Timestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	bodies := map[string]any{
		EventHelloResponse:            HelloResponse{Message: "world", Timestamp: now},
		EventPongResponse:             PongResponse{OriginalBody: json.RawMessage(`{"n":1}`), Timestamp: now},
		EventError:                    ErrorBody{Message: "Invalid JSON format", OriginalMessage: "garbage", Timestamp: now},
		EventOBSState:                 OBSStateBody{Streaming: true, Timestamp: now},
		EventTwitchConnectResponse:    TwitchActionResult{Success: true, Timestamp: now},
		EventTwitchDisconnectResponse: TwitchActionResult{Success: true, Timestamp: now},
		EventTwitchAuthResponse:       TwitchAuthResponse{Success: true, URL: "https://id.twitch.tv/x", Timestamp: now},
		EventTwitchAuthState:          TwitchAuthStateBody{IsAuthenticated: true, Username: "streamer", Timestamp: now},
	}

	for eventType, body := range bodies {
		t.Run(eventType, func(t *testing.T) {
			env, err := New(eventType, body)
			require.NoError(t, err)

			data, err := Marshal(env)
			require.NoError(t, err)

			parsed, err := Parse(data)
			require.NoError(t, err)
			assert.Equal(t, env, parsed)
		})
	}
}

func TestNew_OmitsAbsentOptionalFields(t *testing.T) {
	env, err := New(EventError, ErrorBody{EventType: "nonexistent", Timestamp: "2024-03-01T12:00:00Z"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(env.EventBody, &fields))
	assert.NotContains(t, fields, "message")
	assert.NotContains(t, fields, "originalMessage")
	assert.Equal(t, "nonexistent", fields["eventType"])
}

func TestMarshal_TopLevelShape(t *testing.T) {
	env, err := New(EventHelloResponse, HelloResponse{Message: "world", Timestamp: "2024-03-01T12:00:00Z"})
	require.NoError(t, err)

	data, err := Marshal(env)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "eventType")
	assert.Contains(t, fields, "eventBody")
}

func TestNewEvent_UsesSeparateTagSpace(t *testing.T) {
	ev, err := NewEvent(TypeChatMessage, ChatMessageData{Username: "viewer", Channel: "somechannel", Message: "hi", Timestamp: "2024-03-01T12:00:00Z"})
	require.NoError(t, err)

	data, err := MarshalEvent(ev)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "data")
	assert.NotContains(t, fields, "eventType")
}

func TestTimestamp_RFC3339UTC(t *testing.T) {
	ts := Timestamp(time.Date(2024, 3, 1, 13, 30, 0, 0, time.FixedZone("CET", 3600)))
	assert.Equal(t, "2024-03-01T12:30:00Z", ts)
}
