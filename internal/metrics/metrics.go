package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocket Metrics
var (
	// WebSocketConnectionsCurrent tracks current active WebSocket connections
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_current",
			Help: "Current number of active WebSocket connections",
		},
	)

	// WebSocketConnectionsTotal tracks total WebSocket connection attempts by result
	WebSocketConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total WebSocket connection attempts by result (success/error)",
		},
		[]string{"result"},
	)

	// WebSocketPingFailures tracks WebSocket ping failures
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket ping failures (client not responding)",
		},
	)
)

// Dispatch Metrics
var (
	// DispatchTotal tracks dispatched requests by event type and result
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Total dispatched requests by event type and result (ok/parse_error/unknown_type/handler_error/panic)",
		},
		[]string{"event_type", "result"},
	)

	// DispatchDuration tracks dispatch latency in seconds
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Dispatch duration in seconds by event type",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"event_type"},
	)
)

// Hub Metrics
var (
	// HubConnectedClients tracks number of connections in the live set
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of connections currently tracked by the hub",
		},
	)

	// HubBroadcastsTotal tracks broadcast calls
	HubBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total broadcast calls through the hub",
		},
	)

	// HubSlowClientsEvicted tracks number of slow or dead clients evicted
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total clients evicted because their send buffer was full or their writer had stopped",
		},
	)

	// HubPanicsTotal tracks hub panic recoveries
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Total hub panic recoveries",
		},
	)
)

// External Collaborator Metrics
var (
	// OBSRequestsTotal tracks OBS control calls by operation and status
	OBSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obs_requests_total",
			Help: "Total OBS control calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// TwitchChatEventsTotal tracks chat bridge events by kind
	TwitchChatEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twitch_chat_events_total",
			Help: "Total chat bridge events forwarded by kind (message/subscription/bits/follow/raid/host)",
		},
		[]string{"kind"},
	)
)
