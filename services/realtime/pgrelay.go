package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"gorm.io/gorm"
)

// RelayChannel is the Postgres NOTIFY channel shared by all instances
const RelayChannel = "educonnect_notifications"

// NOTIFY payloads must stay below 8000 bytes
const maxNotifyPayload = 7900

type relayMessage struct {
	UserID       uint                       `json:"user_id"`
	Notification model.NotificationResponse `json:"notification"`
}

// PGRelay publishes notifications through Postgres LISTEN/NOTIFY so every
// instance can deliver to its own locally connected users.
type PGRelay struct {
	db       *gorm.DB
	hub      *Hub
	dsn      string
	listener *pq.Listener
}

// NewPGRelay creates a relay delivering into hub
func NewPGRelay(db *gorm.DB, hub *Hub, dsn string) *PGRelay {
	return &PGRelay{db: db, hub: hub, dsn: dsn}
}

// Push publishes the notification to all instances. It falls back to the
// local hub when publishing fails.
func (r *PGRelay) Push(userID uint, notification model.NotificationResponse) bool {
	payload, err := json.Marshal(relayMessage{UserID: userID, Notification: notification})
	if err == nil && len(payload) > maxNotifyPayload {
		err = errors.New("payload too large for NOTIFY")
	}
	if err == nil {
		err = r.db.Exec("SELECT pg_notify(?, ?)", RelayChannel, string(payload)).Error
	}
	if err != nil {
		logger.Warn("relay publish for user %d failed, delivering locally: %v", userID, err)
		return r.hub.Push(userID, notification)
	}
	return true
}

// Start begins listening on RelayChannel until ctx is cancelled
func (r *PGRelay) Start(ctx context.Context) error {
	listener := pq.NewListener(r.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("relay listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(RelayChannel); err != nil {
		listener.Close()
		return err
	}
	r.listener = listener

	go r.run(ctx)
	logger.Info("Realtime relay listening on %s", RelayChannel)
	return nil
}

func (r *PGRelay) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-r.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect; missed events are readable from the table
			if n == nil {
				continue
			}
			r.deliver(n.Extra)
		case <-time.After(90 * time.Second):
			go r.listener.Ping()
		}
	}
}

func (r *PGRelay) deliver(payload string) bool {
	msg, err := decodeRelayMessage(payload)
	if err != nil {
		logger.Warn("dropping relay message: %v", err)
		return false
	}
	return r.hub.Push(msg.UserID, msg.Notification)
}

func decodeRelayMessage(payload string) (relayMessage, error) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, err
	}
	if msg.UserID == 0 {
		return msg, errors.New("relay message without user_id")
	}
	return msg, nil
}

// Close stops the listener
func (r *PGRelay) Close() error {
	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}
