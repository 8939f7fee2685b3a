package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/services/realtime"
	"github.com/sahilchouksey/educonnect-api/utils/auth"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"github.com/sahilchouksey/educonnect-api/utils/response"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	identifyWait   = 5 * time.Second
)

// TokenVerifier resolves an access token to its user
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*auth.Claims, *model.User, error)
}

// WSHandler serves the notification websocket channel
type WSHandler struct {
	hub      *realtime.Hub
	verifier TokenVerifier
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(hub *realtime.Hub, verifier TokenVerifier) *WSHandler {
	return &WSHandler{hub: hub, verifier: verifier}
}

// Upgrade rejects plain HTTP requests to the websocket endpoint
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return response.Error(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required", "UPGRADE_REQUIRED")
	}
	return c.Next()
}

// Handler returns the fiber handler for GET /ws
func (h *WSHandler) Handler() fiber.Handler {
	return websocket.New(h.serve)
}

// serve runs one connection. The client identifies with
// {"event":"identify","token":"<access token>"}; after that the connection
// receives that user's notifications until it closes.
func (h *WSHandler) serve(conn *websocket.Conn) {
	sc := realtime.NewSyncConn(conn)

	defer func() {
		if userID, ok := h.hub.Deregister(sc); ok {
			logger.Debug("websocket closed for user %d", userID)
		}
		sc.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(sc, done)

	// unidentified connections get a short window
	deadline := identifyWait
	for {
		if err := conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
			return
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var ev realtime.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			h.reply(sc, realtime.Event{Event: realtime.EventError, Error: "malformed message"})
			continue
		}

		switch ev.Event {
		case realtime.EventIdentify:
			if h.identify(sc, ev.Token) {
				deadline = pongWait
			}
		default:
			h.reply(sc, realtime.Event{Event: realtime.EventError, Error: "unknown event"})
		}
	}
}

func (h *WSHandler) identify(sc *realtime.SyncConn, token string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), identifyWait)
	defer cancel()

	_, user, err := h.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		h.reply(sc, realtime.Event{Event: realtime.EventError, Error: "identify failed"})
		return false
	}

	if previous := h.hub.Register(user.ID, sc); previous != nil {
		logger.Debug("user %d reconnected, previous connection replaced", user.ID)
	}

	h.reply(sc, realtime.Event{Event: realtime.EventIdentified, UserID: user.ID})
	return true
}

func (h *WSHandler) reply(sc *realtime.SyncConn, ev realtime.Event) {
	if err := sc.WriteJSON(ev); err != nil {
		logger.Debug("websocket write failed: %v", err)
	}
}

func (h *WSHandler) keepAlive(sc *realtime.SyncConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := sc.Ping(); err != nil {
				return
			}
		}
	}
}
