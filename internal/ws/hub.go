// Package ws is the realtime broadcast gateway: it tracks which connections
// belong to which user, which connections joined which project room, and fans
// mutation events out to them. All state is process-local and ephemeral;
// nothing is replayed to clients that were disconnected during a mutation.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Client-initiated message events.
const (
	MsgJoinProject  = "join:project"
	MsgLeaveProject = "leave:project"
)

// Gateway-initiated reply events.
const (
	EventConnected     = "connected"
	EventJoinedProject = "joined:project"
	EventError         = "error"
)

// ParticipantChecker re-validates project access on join:project. A client
// could otherwise subscribe to any project's events.
type ParticipantChecker interface {
	IsParticipant(projectID uint, userID uint) (bool, error)
}

// Hub is created once at process start and injected wherever events are
// emitted. It is the only cross-request mutable state in the process.
type Hub struct {
	guard ParticipantChecker

	mu    sync.RWMutex
	rooms map[uint]map[*Client]bool
	users map[uint]map[*Client]bool
}

func NewHub(guard ParticipantChecker) *Hub {
	return &Hub{
		guard: guard,
		rooms: make(map[uint]map[*Client]bool),
		users: make(map[uint]map[*Client]bool),
	}
}

// Register records a freshly authenticated connection under its user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]bool)
	}
	h.users[c.UserID][c] = true
}

// Unregister removes the connection from its user entry and every room. An
// empty user entry is dropped so "fully offline" stays distinguishable from
// "has other live connections".
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if clients, ok := h.users[c.UserID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.users, c.UserID)
		}
	}

	for projectID, clients := range h.rooms {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

// Join admits c into a project room after re-checking participation. The
// client gets joined:project on success and error otherwise; an authorization
// failure never terminates the connection.
func (h *Hub) Join(c *Client, projectID uint) {
	allowed, err := h.guard.IsParticipant(projectID, c.UserID)

	if err != nil {
		log.Printf("Join authorization check failed for user %d: %v", c.UserID, err)
		c.send(EventError, map[string]string{"message": "Failed to join project"})
		return
	}

	if !allowed {
		c.send(EventError, map[string]string{"message": "You do not have access to this project"})
		return
	}

	h.mu.Lock()
	if h.rooms[projectID] == nil {
		h.rooms[projectID] = make(map[*Client]bool)
	}
	h.rooms[projectID][c] = true
	h.mu.Unlock()

	c.send(EventJoinedProject, map[string]uint{"projectId": projectID})
}

// Leave removes c from a project room. No reply is sent.
func (h *Hub) Leave(c *Client, projectID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[projectID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, projectID)
		}
	}
}

// ToProject sends an event to every connection subscribed to the project's
// room. Failed connections are evicted and closed.
func (h *Hub) ToProject(projectID uint, event string, payload any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[projectID]))
	for c := range h.rooms[projectID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(event, payload); err != nil {
			log.Printf("Broadcast to project %d failed for connection %s: %v", projectID, c.ID, err)
			h.drop(c)
		}
	}
}

// ToUser sends an event to every connection of one user, regardless of room
// membership. Used for notifications that must reach the user even if their
// client never joined (or already left) the project channel.
func (h *Hub) ToUser(userID uint, event string, payload any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(event, payload); err != nil {
			log.Printf("Direct send to user %d failed for connection %s: %v", userID, c.ID, err)
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	c.conn.Close()
}

// RoomSize reports how many connections are subscribed to a project room.
func (h *Hub) RoomSize(projectID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// UserConnections reports how many live connections a user holds.
func (h *Hub) UserConnections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Serve runs the connection lifecycle: register, welcome, ping loop and the
// read loop dispatching join/leave requests. It blocks until the connection
// errors or closes, then cleans up.
func (h *Hub) Serve(c *Client) {
	h.Register(c)

	defer func() {
		h.Unregister(c)
		c.conn.Close()
		log.Printf("WebSocket connection %s closed for user %d", c.ID, c.UserID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := c.send(EventConnected, map[string]string{"message": "WebSocket connection established"}); err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					log.Printf("Ping failed for connection %s: %v", c.ID, err)
					return
				}
			}
		}
	}()

	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for connection %s: %v", c.ID, err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send(EventError, map[string]string{"message": "Invalid message"})
			continue
		}

		h.dispatch(c, msg)
	}
}

type projectRef struct {
	ProjectID uint `json:"projectId"`
}

func (h *Hub) dispatch(c *Client, msg Message) {
	var ref projectRef
	if err := json.Unmarshal(msg.Data, &ref); err != nil || ref.ProjectID == 0 {
		c.send(EventError, map[string]string{"message": "Invalid message"})
		return
	}

	switch msg.Event {
	case MsgJoinProject:
		h.Join(c, ref.ProjectID)
	case MsgLeaveProject:
		h.Leave(c, ref.ProjectID)
	default:
		c.send(EventError, map[string]string{"message": "Unknown event"})
	}
}
