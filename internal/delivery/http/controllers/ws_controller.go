package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"liveparticipation/internal/realtime"
)

type WSController struct {
	Logger   *slog.Logger
	Hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewWSController(logger *slog.Logger, hub *realtime.Hub) *WSController {
	return &WSController{
		Logger: logger,
		Hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the CORS layer in front; the
			// websocket endpoint itself accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve godoc
// @Summary Open the real-time channel
// @Description Upgrades to a websocket. An event_id query parameter joins that event's room immediately; the client may also send {"action":"join"|"leave","event_id":"..."} messages. The server emits room:joined, rsvp:updated, poll:activated, poll:deactivated, poll:vote, suggestion:new, and suggestion:vote.
// @Tags realtime
// @Param event_id query string false "Event ID to join on connect"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (c *WSController) Serve(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		c.Logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c.Hub.HandleConnection(conn, eventID)
}
