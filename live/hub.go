package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub tracks connected clients and the rooms they joined. Register and
// unregister go through channels serviced by Run; room membership and
// broadcasting use the read-write mutex directly.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("client registered", slog.String("client_id", client.ID), slog.Int("user_id", client.UserID))

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for roomID := range client.rooms {
					h.removeFromRoomLocked(roomID, client)
				}
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Info("client unregistered", slog.String("client_id", client.ID))
		}
	}
}

// JoinRoom subscribes the client to a room, creating it on first join.
func (h *Hub) JoinRoom(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
	h.logger.Info("client joined room",
		slog.String("client_id", client.ID),
		slog.String("room", roomID),
		slog.Int("room_size", len(h.rooms[roomID])))
}

// LeaveRoom unsubscribes the client; empty rooms are discarded.
func (h *Hub) LeaveRoom(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(roomID, client)
	delete(client.rooms, roomID)
}

func (h *Hub) removeFromRoomLocked(roomID string, client *Client) {
	roomClients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(roomClients, client)
	if len(roomClients) == 0 {
		delete(h.rooms, roomID)
	}
}

// BroadcastToRoom sends one event to every client in the room. Delivery is
// fire-and-forget: a client whose send buffer is full is skipped, never
// blocks the caller.
func (h *Hub) BroadcastToRoom(roomID string, event string, payload interface{}) {
	messageBytes, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("room", roomID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	for client := range roomClients {
		client.enqueue(messageBytes)
	}
}

// RoomSize reports how many clients are subscribed to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
