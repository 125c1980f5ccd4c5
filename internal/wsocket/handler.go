package wsocket

import (
	"net/http"
	"time"

	"emberfree_go_backend/internal/models"
	"emberfree_go_backend/internal/services"
	"emberfree_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler streams AI usage events to connected admin dashboards. Each
// connection subscribes to the broker's usage topic for its lifetime.
type Handler struct {
	upgrader     websocket.Upgrader
	events       *broker.Broker
	pingInterval time.Duration
}

type outboundMessage struct {
	Type    string      `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

func NewHandler(upgrader websocket.Upgrader, events *broker.Broker, pingInterval time.Duration) *Handler {
	return &Handler{
		upgrader:     upgrader,
		events:       events,
		pingInterval: pingInterval,
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request, user interface{}) {
	userModel, ok := user.(*models.User)
	if !ok || !userModel.Admin {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	eventCh := h.events.Subscribe(services.UsageEventTopic)
	defer h.events.Unsubscribe(services.UsageEventTopic, eventCh)

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev, open := <-eventCh:
			if !open {
				return
			}
			msg := outboundMessage{Type: "ai_usage", At: ev.At, Payload: ev.Payload}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed, closing")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
