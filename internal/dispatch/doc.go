// Package dispatch maps incoming request envelopes to handlers and
// guarantees exactly one well-formed response per inbound frame.
package dispatch
