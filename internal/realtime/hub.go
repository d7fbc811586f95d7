package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"liveparticipation/internal/domain"
)

// Envelope is the wire shape of every published message.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub owns the room membership: event ID -> set of live connections. Rooms
// are not pre-declared; a room exists while at least one client is in it.
// Hub implements domain.Broadcaster.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*Client]struct{}),
	}
}

// Join adds the client to the event's room and acknowledges with the current
// subscriber count. Re-joining a room the client is already in only refreshes
// membership and re-sends the acknowledgement.
func (h *Hub) Join(client *Client, eventID string) {
	h.mu.Lock()
	room, ok := h.rooms[eventID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[eventID] = room
	}
	room[client] = struct{}{}
	subscribers := len(room)
	h.mu.Unlock()

	client.enqueue(marshalEnvelope(domain.BroadcastRoomJoined, map[string]any{
		"event_id":    eventID,
		"subscribers": subscribers,
	}))
}

// Leave removes the client from the event's room, discarding the room once empty.
func (h *Hub) Leave(client *Client, eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[eventID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, eventID)
		}
	}
}

// removeFromAllRooms drops the client from every room it belongs to. Called
// on connection teardown, voluntary or forced.
func (h *Hub) removeFromAllRooms(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for eventID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, eventID)
		}
	}
}

// Publish serializes {event, data} once and delivers it to every client in
// the room. Delivery is best-effort: a client whose send buffer is full is
// skipped, and no ordering is guaranteed across subscribers.
func (h *Hub) Publish(eventID, name string, payload any) {
	raw := marshalEnvelope(name, payload)
	if raw == nil {
		h.logger.Warn("broadcast payload not serializable", "event_id", eventID, "name", name)
		return
	}

	h.mu.RLock()
	room := h.rooms[eventID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(raw)
	}
}

// RoomSize reports the current subscriber count of the event's room.
func (h *Hub) RoomSize(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

func marshalEnvelope(name string, payload any) []byte {
	raw, err := json.Marshal(Envelope{Event: name, Data: payload})
	if err != nil {
		return nil
	}
	return raw
}
