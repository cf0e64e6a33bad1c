// Package metrics defines the Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification dispatch metrics
var (
	// NotificationsCreatedTotal counts notifications durably stored.
	NotificationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total notifications persisted to the store",
		},
	)

	// NotificationsPublishedTotal counts publish calls handed to the hub.
	NotificationsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total notifications handed to the hub for fanout",
		},
	)

	// NotificationsDeliveredTotal counts per-session deliveries queued to client writers.
	NotificationsDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total notification payloads queued to connected clients",
		},
	)
)

// Hub metrics
var (
	// HubConnectedClients tracks currently connected WebSocket clients.
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Currently connected WebSocket clients",
		},
	)

	// HubActiveRooms tracks rooms with at least one joined session.
	HubActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_rooms",
			Help: "Rooms with at least one joined session",
		},
	)

	// HubSlowClientsEvicted counts clients dropped for a full send buffer.
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// WebSocketPingFailures counts failed keepalive pings.
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Failed WebSocket keepalive pings",
		},
	)
)
