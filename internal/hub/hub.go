package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/notifly/internal/domain"
	"github.com/pscheid92/notifly/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// notificationEvent is the single event name pushed to clients. Routing is
// done by room membership, not by the event name.
const notificationEvent = "notification"

var (
	// ErrUnknownConnection is returned when a command names a connection the
	// hub no longer knows. This is a benign race with disconnect, not fatal.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrRoomFull is returned when a join would exceed the per-user client cap.
	ErrRoomFull = errors.New("max clients per user reached")
)

// envelope is the wire frame pushed to clients.
type envelope struct {
	Event string               `json:"event"`
	Data  *domain.Notification `json:"data"`
}

// session is one live connection's registration state. userID is empty until
// the connection joins; unjoined sessions receive nothing.
type session struct {
	id     uuid.UUID
	userID string
	conn   *websocket.Conn
	writer *clientWriter
}

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type connectCmd struct {
	baseHubCmd
	conn    *websocket.Conn
	replyCh chan uuid.UUID
}

type joinCmd struct {
	baseHubCmd
	connectionID uuid.UUID
	userID       string
	errCh        chan error
}

type disconnectCmd struct {
	baseHubCmd
	connectionID uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	userID string
	data   []byte
}

type roomSizeCmd struct {
	baseHubCmd
	userID  string
	replyCh chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub owns all session and room state. A single goroutine processes commands
// from cmdCh, so no other component touches the maps directly and no locks
// are needed. Pushing to a client never blocks the hub: each connection has
// its own writer goroutine with a buffered channel.
type Hub struct {
	cmdCh             chan hubCmd
	clock             clockwork.Clock
	sessions          map[uuid.UUID]*session
	rooms             map[string]map[uuid.UUID]*session
	maxClientsPerUser int
	done              chan struct{}
}

// NewHub creates the hub and starts its command loop.
// maxClientsPerUser limits connections per room (prevents resource exhaustion).
func NewHub(clock clockwork.Clock, maxClientsPerUser int) *Hub {
	h := &Hub{
		cmdCh:             make(chan hubCmd, 256),
		clock:             clock,
		sessions:          make(map[uuid.UUID]*session),
		rooms:             make(map[string]map[uuid.UUID]*session),
		maxClientsPerUser: maxClientsPerUser,
		done:              make(chan struct{}),
	}
	go h.run()
	return h
}

// --- Public API ---

// Connect registers a new, unjoined session and returns its connection ID.
// Returns uuid.Nil if the command times out, which happens when an upgrade
// races hub shutdown; callers must close the connection themselves in that
// case.
func (h *Hub) Connect(conn *websocket.Conn) uuid.UUID {
	replyCh := make(chan uuid.UUID, 1)
	h.cmdCh <- connectCmd{conn: conn, replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case id := <-replyCh:
		return id
	case <-timer.Chan():
		slog.Warn("Connect timed out", "timeout", commandTimeout)
		return uuid.Nil
	}
}

// Join associates (or re-associates) a connection with a user's room.
// Re-joining the same user is a no-op; joining a different user moves the
// session between rooms. Returns ErrUnknownConnection if the connection has
// already disconnected and ErrRoomFull if the room is at capacity.
func (h *Hub) Join(connectionID uuid.UUID, userID string) error {
	errCh := make(chan error, 1)
	h.cmdCh <- joinCmd{connectionID: connectionID, userID: userID, errCh: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("join command timed out after %v", commandTimeout)
	}
}

// Disconnect removes a session from its room and stops its writer.
// Safe to call more than once for the same connection.
func (h *Hub) Disconnect(connectionID uuid.UUID) {
	h.cmdCh <- disconnectCmd{connectionID: connectionID}
}

// Publish fans the notification out to every session currently joined to the
// target user's room. Delivery to each session is independent and
// best-effort: a full writer buffer evicts that client but never blocks or
// fails the publish, and Publish itself never reports an error.
func (h *Hub) Publish(n *domain.Notification) {
	data, err := json.Marshal(envelope{Event: notificationEvent, Data: n})
	if err != nil {
		slog.Error("Failed to marshal notification event", "error", err, "notification_id", n.ID)
		return
	}

	metrics.NotificationsPublishedTotal.Inc()
	h.cmdCh <- publishCmd{userID: n.UserID, data: data}
}

// RoomSize returns the number of sessions currently joined to a user's room.
// Returns -1 if the command times out.
func (h *Hub) RoomSize(userID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- roomSizeCmd{userID: userID, replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case size := <-replyCh:
		return size
	case <-timer.Chan():
		slog.Warn("RoomSize timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, sending close frames to all clients.
// Blocks until the hub goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

// --- Command loop ---

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case connectCmd:
			h.handleConnect(c)
		case joinCmd:
			h.handleJoin(c)
		case disconnectCmd:
			h.handleDisconnect(c.connectionID)
		case publishCmd:
			h.handlePublish(c)
		case roomSizeCmd:
			c.replyCh <- len(h.rooms[c.userID])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleConnect(c connectCmd) {
	s := &session{
		id:     uuid.New(),
		conn:   c.conn,
		writer: newClientWriter(c.conn, h.clock),
	}
	h.sessions[s.id] = s

	metrics.HubConnectedClients.Inc()

	slog.Debug("Client connected", "connection_id", s.id.String(), "total_clients", len(h.sessions))
	c.replyCh <- s.id
}

func (h *Hub) handleJoin(c joinCmd) {
	s, exists := h.sessions[c.connectionID]
	if !exists {
		c.errCh <- ErrUnknownConnection
		return
	}

	if s.userID == c.userID {
		c.errCh <- nil
		return
	}

	room := h.rooms[c.userID]
	if len(room) >= h.maxClientsPerUser {
		slog.Warn("Rejecting join: max clients reached", "user_id", c.userID, "max_clients", h.maxClientsPerUser)
		c.errCh <- ErrRoomFull
		return
	}

	h.leaveRoom(s)

	if room == nil {
		room = make(map[uuid.UUID]*session)
		h.rooms[c.userID] = room
		metrics.HubActiveRooms.Set(float64(len(h.rooms)))
	}
	room[s.id] = s
	s.userID = c.userID

	slog.Debug("Client joined room", "connection_id", s.id.String(), "user_id", c.userID, "room_size", len(room))
	c.errCh <- nil
}

func (h *Hub) handleDisconnect(connectionID uuid.UUID) {
	s, exists := h.sessions[connectionID]
	if !exists {
		return
	}

	h.leaveRoom(s)
	s.writer.stop()
	delete(h.sessions, connectionID)

	metrics.HubConnectedClients.Dec()

	slog.Debug("Client disconnected", "connection_id", connectionID.String(), "total_clients", len(h.sessions))
}

// leaveRoom removes a session from its current room, dropping the room once
// empty. No-op for unjoined sessions.
func (h *Hub) leaveRoom(s *session) {
	if s.userID == "" {
		return
	}

	room := h.rooms[s.userID]
	delete(room, s.id)
	if len(room) == 0 {
		delete(h.rooms, s.userID)
		metrics.HubActiveRooms.Set(float64(len(h.rooms)))
	}
	s.userID = ""
}

func (h *Hub) handlePublish(c publishCmd) {
	room, exists := h.rooms[c.userID]
	if !exists {
		return
	}

	var slow []*session
	for _, s := range room {
		select {
		case s.writer.sendChannel <- c.data:
			metrics.NotificationsDeliveredTotal.Inc()
		default:
			slow = append(slow, s)
		}
	}

	for _, s := range slow {
		slog.Warn("Disconnecting slow client", "connection_id", s.id.String(), "user_id", c.userID)
		metrics.HubSlowClientsEvicted.Inc()
		h.handleDisconnect(s.id)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "rooms", len(h.rooms), "total_clients", len(h.sessions))

	for id, s := range h.sessions {
		s.writer.stopGraceful("Server shutting down")
		delete(h.sessions, id)
	}
	for userID := range h.rooms {
		delete(h.rooms, userID)
	}

	metrics.HubConnectedClients.Set(0)
	metrics.HubActiveRooms.Set(0)
}
