// Package protocol defines the JSON wire format exchanged with browser
// clients: request/response envelopes keyed by eventType and unsolicited
// server-pushed events keyed by type.
package protocol
