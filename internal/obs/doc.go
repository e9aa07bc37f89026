// Package obs wraps the OBS WebSocket v5 API behind the narrow
// streaming-control surface the relay core depends on.
package obs
