// Package server exposes the WebSocket endpoint and the observability
// routes, and owns the per-connection read loop.
package server
