package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/courtside/league-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(id string, hub *Hub) *Client {
	return NewClient(id, 1, models.RoleCoach, hub, nil)
}

func receivedFrames(t *testing.T, c *Client) []Message {
	t.Helper()
	var frames []Message
	for {
		select {
		case raw := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			frames = append(frames, msg)
		default:
			return frames
		}
	}
}

func TestBroadcastToRoom(t *testing.T) {
	t.Run("every room member gets the event exactly once", func(t *testing.T) {
		hub := newTestHub()
		first := newTestClient("c1", hub)
		second := newTestClient("c2", hub)
		outsider := newTestClient("c3", hub)

		room := GameRoom(7)
		hub.JoinRoom(room, first)
		hub.JoinRoom(room, second)
		hub.JoinRoom(GameRoom(8), outsider)

		hub.BroadcastToRoom(room, EventGameUpdated, map[string]int{"homeScore": 52})

		for _, member := range []*Client{first, second} {
			frames := receivedFrames(t, member)
			require.Len(t, frames, 1, "client %s", member.ID)
			assert.Equal(t, EventGameUpdated, frames[0].Event)
		}
		assert.Empty(t, receivedFrames(t, outsider), "other rooms stay quiet")
	})

	t.Run("broadcast to an unknown room is a no-op", func(t *testing.T) {
		hub := newTestHub()
		hub.BroadcastToRoom(GameRoom(404), EventGameUpdated, nil)
	})

	t.Run("leaving a room stops delivery", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient("c1", hub)

		room := GameRoom(7)
		hub.JoinRoom(room, client)
		hub.LeaveRoom(room, client)

		hub.BroadcastToRoom(room, EventGameUpdated, nil)

		assert.Empty(t, receivedFrames(t, client))
		assert.Zero(t, hub.RoomSize(room), "empty rooms are discarded")
	})

	t.Run("closed clients are skipped without panicking", func(t *testing.T) {
		hub := newTestHub()
		client := newTestClient("c1", hub)

		room := GameRoom(7)
		hub.JoinRoom(room, client)
		client.closeSend()

		hub.BroadcastToRoom(room, EventGameUpdated, nil)
	})
}

func TestRoomMembership(t *testing.T) {
	hub := newTestHub()
	first := newTestClient("c1", hub)
	second := newTestClient("c2", hub)

	room := GameRoom(3)
	hub.JoinRoom(room, first)
	hub.JoinRoom(room, second)
	assert.Equal(t, 2, hub.RoomSize(room))

	// Joining twice does not double-count.
	hub.JoinRoom(room, first)
	assert.Equal(t, 2, hub.RoomSize(room))

	hub.LeaveRoom(room, first)
	assert.Equal(t, 1, hub.RoomSize(room))
}

func TestGameRoom(t *testing.T) {
	assert.Equal(t, "game_42", GameRoom(42))
}
