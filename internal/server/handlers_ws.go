package server

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/notifly/internal/hub"
)

// clientMessage is the frame clients send over the socket. The only event a
// client emits is "join", carrying the user identity the connection should
// receive notifications for.
type clientMessage struct {
	Event  string      `json:"event"`
	UserID userIDValue `json:"userId"`
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err, "remote_addr", c.Request().RemoteAddr)
		return nil
	}

	connectionID := s.hub.Connect(conn)
	if connectionID == uuid.Nil {
		// Hub is shutting down; the session was never registered.
		_ = conn.Close()
		return nil
	}
	defer s.hub.Disconnect(connectionID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket read error", "connection_id", connectionID.String(), "error", err)
			}
			return nil
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("Ignoring malformed client message", "connection_id", connectionID.String(), "error", err)
			continue
		}

		if msg.Event != "join" || msg.UserID == "" {
			continue
		}

		if err := s.hub.Join(connectionID, string(msg.UserID)); err != nil {
			if errors.Is(err, hub.ErrUnknownConnection) {
				// Lost the race with disconnect; the read loop will exit on its own.
				continue
			}
			slog.Warn("Join rejected", "connection_id", connectionID.String(), "user_id", string(msg.UserID), "error", err)
			return nil
		}
	}
}
