package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/alejandrade/twitch-bot/internal/logging"
	"github.com/alejandrade/twitch-bot/internal/metrics"
	"github.com/alejandrade/twitch-bot/internal/protocol"
)

// invalidJSONMessage is the fixed message clients see for malformed frames.
const invalidJSONMessage = "Invalid JSON format"

// Registry holds handlers in registration order. Registration order is the
// tie-break for dispatch: the first registered handler whose CanHandle
// returns true wins, and no handler is invoked twice for one frame.
type Registry struct {
	handlers []Handler
	clock    clockwork.Clock
}

func NewRegistry(clock clockwork.Clock) *Registry {
	return &Registry{clock: clock}
}

// Register appends a handler. Handlers are registered once at process
// start and never removed.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
	slog.Debug("Handler registered", "event_type", h.EventType(), "position", len(r.handlers))
}

// Dispatch turns one raw inbound frame into exactly one response envelope.
// Nothing escapes this boundary: parse failures, unknown event types,
// handler errors and panics all degrade to an "error" envelope.
func (r *Registry) Dispatch(ctx context.Context, raw []byte, conn Conn) (resp protocol.Envelope) {
	start := r.clock.Now()
	eventType := "unparsed"

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Handler panic recovered", "event_type", eventType, "panic", rec)
			metrics.DispatchTotal.WithLabelValues(eventType, "panic").Inc()
			resp = r.errorEnvelope(protocol.ErrorBody{
				Message:   "Internal server error",
				EventType: eventType,
			})
		}
		metrics.DispatchDuration.WithLabelValues(eventType).Observe(r.clock.Since(start).Seconds())
	}()

	env, err := protocol.Parse(raw)
	if err != nil {
		var parseErr *protocol.ParseError
		if !errors.As(err, &parseErr) {
			parseErr = &protocol.ParseError{Raw: string(raw), Err: err}
		}
		slog.Warn("Rejecting malformed frame", "error", parseErr.Err)
		metrics.DispatchTotal.WithLabelValues(eventType, "parse_error").Inc()
		return r.errorEnvelope(protocol.ErrorBody{
			Message:         invalidJSONMessage,
			OriginalMessage: parseErr.Raw,
		})
	}
	eventType = env.EventType

	for _, h := range r.handlers {
		if !h.CanHandle(env) {
			continue
		}

		resp, err := h.Handle(ctx, env, conn)
		if err != nil {
			// Last line of defense: handlers convert their own failures,
			// so an error here is a bug, not a declared failure.
			logging.WithEventType(h.EventType()).Error("Handler returned unexpected error", "error", err)
			metrics.DispatchTotal.WithLabelValues(eventType, "handler_error").Inc()
			return r.errorEnvelope(protocol.ErrorBody{
				Message:   "Internal server error",
				EventType: env.EventType,
			})
		}
		metrics.DispatchTotal.WithLabelValues(eventType, "ok").Inc()
		return resp
	}

	logging.WithEventType(env.EventType).Warn("No handler for event type")
	metrics.DispatchTotal.WithLabelValues(eventType, "unknown_type").Inc()
	return r.errorEnvelope(protocol.ErrorBody{
		Message:   "Unknown event type",
		EventType: env.EventType,
	})
}

// errorEnvelope builds the generic "error" envelope, stamping the
// generation timestamp.
func (r *Registry) errorEnvelope(body protocol.ErrorBody) protocol.Envelope {
	body.Timestamp = protocol.Timestamp(r.clock.Now())
	env, err := protocol.New(protocol.EventError, body)
	if err != nil {
		slog.Error("Failed to marshal error body", "error", err)
		return protocol.Envelope{EventType: protocol.EventError, EventBody: json.RawMessage("{}")}
	}
	return env
}
