package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmercer/biosift/internal/events"
	"github.com/dmercer/biosift/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// EventsHandler streams pipeline run events over a websocket
type EventsHandler struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewEventsHandler creates a new events stream handler
func NewEventsHandler(bus *events.Bus, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: log,
	}
}

// Stream upgrades the connection and forwards bus events until the
// client disconnects
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Event stream opened")

	// Drain reads so close frames and pongs are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.WithError(err).Debug("Event stream write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
