package realtime

import (
	"sync"

	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
)

// Event names on the websocket channel
const (
	EventIdentify     = "identify"
	EventIdentified   = "identified"
	EventNotification = "notification"
	EventError        = "error"
)

// Event is the JSON frame exchanged with clients
type Event struct {
	Event  string      `json:"event"`
	Token  string      `json:"token,omitempty"`
	UserID uint        `json:"user_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Hub is the process-local registry of identified connections. Each user
// has at most one live connection; the latest identify wins.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]Conn
	byConn map[Conn]uint
}

// NewHub creates an empty registry
func NewHub() *Hub {
	return &Hub{
		byUser: make(map[uint]Conn),
		byConn: make(map[Conn]uint),
	}
}

// Register binds conn to userID and returns the connection it displaced,
// if any. The displaced connection stays open but no longer receives pushes.
func (h *Hub) Register(userID uint, conn Conn) Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	// conn re-identifying as someone else drops its old binding
	if prevUser, ok := h.byConn[conn]; ok && prevUser != userID {
		if h.byUser[prevUser] == conn {
			delete(h.byUser, prevUser)
		}
	}

	previous := h.byUser[userID]
	if previous == conn {
		previous = nil
	}
	if previous != nil {
		delete(h.byConn, previous)
	}

	h.byUser[userID] = conn
	h.byConn[conn] = userID
	return previous
}

// Deregister removes conn. A user's newer connection is left in place.
func (h *Hub) Deregister(conn Conn) (uint, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.byConn[conn]
	if !ok {
		return 0, false
	}
	delete(h.byConn, conn)
	if h.byUser[userID] == conn {
		delete(h.byUser, userID)
	}
	return userID, true
}

// Lookup returns the live connection for userID
func (h *Hub) Lookup(userID uint) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.byUser[userID]
	return conn, ok
}

// Connected returns the number of identified users
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}

// Push sends a notification event to userID's connection. It reports false
// when the user is not connected or the write failed; a failed connection
// is dropped.
func (h *Hub) Push(userID uint, notification model.NotificationResponse) bool {
	conn, ok := h.Lookup(userID)
	if !ok {
		return false
	}

	err := conn.WriteJSON(Event{Event: EventNotification, Data: notification})
	if err != nil {
		logger.Warn("push to user %d failed, dropping connection: %v", userID, err)
		h.Deregister(conn)
		conn.Close()
		return false
	}
	return true
}
