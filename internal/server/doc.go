// Package server wires the HTTP API and the WebSocket transport to the
// application layer: create and list requests go to the app service, socket
// lifecycle events (connect, join, disconnect) go to the hub.
package server
