package handlers

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/arnold/goalsteps-api/internal/middleware"
)

// Event types sent over WebSocket
const (
	EventGoalCreated    = "goal_created"
	EventGoalUpdated    = "goal_updated"
	EventGoalDeleted    = "goal_deleted"
	EventGoalsReordered = "goals_reordered"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type   string      `json:"type"`
	GoalID string      `json:"goalId,omitempty"`
	UserID string      `json:"userId"`
	Data   interface{} `json:"data,omitempty"`
}

type messageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// connection wraps a websocket connection with its user ID. Writes are
// serialized because the underlying conn allows only one writer.
type connection struct {
	mu     sync.Mutex
	conn   messageWriter
	userID uuid.UUID
}

func (c *connection) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub fans goal changes out to every open connection of the goals' owner.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*connection]bool // userID -> set of connections
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*connection]bool),
		logger: logger,
	}
}

func (h *Hub) register(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conn.userID] == nil {
		h.rooms[conn.userID] = make(map[*connection]bool)
	}
	h.rooms[conn.userID][conn] = true
	h.logger.Debug("ws register", "user", conn.userID, "connections", len(h.rooms[conn.userID]))
}

func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conn.userID]; ok {
		delete(conns, conn)
		h.logger.Debug("ws unregister", "user", conn.userID, "connections", len(conns))
		if len(conns) == 0 {
			delete(h.rooms, conn.userID)
		}
	}
}

// Connections returns how many sockets userID has open.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Broadcast sends an event to all of userID's connections.
func (h *Hub) Broadcast(userID uuid.UUID, event WSEvent) {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.rooms[userID]))
	for c := range h.rooms[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws broadcast marshal", "type", event.Type, "error", err)
		return
	}
	h.logger.Debug("ws broadcast", "type", event.Type, "user", userID, "connections", len(conns))

	for _, c := range conns {
		if err := c.send(msg); err != nil {
			h.logger.Warn("ws write", "user", userID, "error", err)
		}
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			tokenString = middleware.BearerToken(c)
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket joins the caller's room and holds the connection open
// until the client goes away.
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	h.register(conn)
	defer h.unregister(conn)

	// Keep connection alive; clients only send pings/keepalives
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
