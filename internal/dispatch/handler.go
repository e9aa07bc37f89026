package dispatch

import (
	"context"

	"github.com/alejandrade/twitch-bot/internal/protocol"
)

// Conn addresses the originating connection only. Handlers that stream
// supplementary out-of-band events use it; they never reach the rest of
// the live-connection set.
type Conn interface {
	Send(data []byte) error
}

// Handler is one unit of request processing.
//
// CanHandle is a pure predicate on the envelope's discriminant and must
// not have side effects. Handle may call external collaborators; it must
// always return a well-formed response envelope and convert its own
// failures into a failure-shaped body rather than returning an error.
// EventType is a stable identity used for logging and registration, not
// for dispatch matching.
type Handler interface {
	EventType() string
	CanHandle(env protocol.Envelope) bool
	Handle(ctx context.Context, env protocol.Envelope, conn Conn) (protocol.Envelope, error)
}
