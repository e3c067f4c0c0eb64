package live

import "strconv"

// Event names on the wire.
const (
	EventJoinGame     = "joinGame"
	EventLeaveGame    = "leaveGame"
	EventUpdateGame   = "updateGame"
	EventGameUpdated  = "gameUpdated"
	EventErrorMessage = "errorMessage"
)

// Broadcaster is the capability route handlers and services need from the
// real-time layer: fan an event out to everyone watching a room. Injected
// explicitly instead of hanging off shared process state.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, payload interface{})
}

// Message is the JSON frame exchanged on the websocket, both directions.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// GameRoom returns the room identifier for a game. Services and the gateway
// must agree on this naming.
func GameRoom(gameID int) string {
	return "game_" + strconv.Itoa(gameID)
}
