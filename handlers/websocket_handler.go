package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/courtside/league-system/live"
	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const wsEventTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades authenticated connections and routes their
// events through the same service layer as the REST routes.
type WebSocketHandler struct {
	hub         *live.Hub
	auth        *middleware.Auth
	gameService services.GameService
	logger      *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, auth *middleware.Auth, gameService services.GameService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		auth:        auth,
		gameService: gameService,
		logger:      logger,
	}
}

// ServeWS authenticates the handshake and starts the connection pumps.
// The token comes from the "token" query parameter or a bearer header,
// and is verified before the upgrade so rejections stay plain HTTP 401s.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		unauthorizedResponse(w, r, "missing authentication token")
		return
	}

	user, err := h.auth.UserFromToken(r.Context(), token)
	if err != nil {
		unauthorizedResponse(w, r, "invalid authentication token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := live.NewClient(uuid.NewString(), user.ID, user.Role, h.hub, conn)
	h.hub.Register <- client

	h.logger.Info("websocket client connected",
		slog.String("client_id", client.ID),
		slog.Int("user_id", user.ID),
		slog.String("role", string(user.Role)))

	go client.WritePump()
	go client.ReadPump(func(c *live.Client, event string, data json.RawMessage) {
		h.dispatch(c, user, event, data)
	})
}

type gameRoomPayload struct {
	GameID int `json:"gameId"`
}

type updateGamePayload struct {
	GameID int `json:"gameId"`
	services.ScoreUpdateInput
}

func (h *WebSocketHandler) dispatch(c *live.Client, actor *models.User, event string, data json.RawMessage) {
	switch event {
	case live.EventJoinGame:
		var payload gameRoomPayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.GameID <= 0 {
			c.Send(live.EventErrorMessage, "joinGame requires a positive gameId")
			return
		}
		h.hub.JoinRoom(live.GameRoom(payload.GameID), c)

	case live.EventLeaveGame:
		var payload gameRoomPayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.GameID <= 0 {
			c.Send(live.EventErrorMessage, "leaveGame requires a positive gameId")
			return
		}
		h.hub.LeaveRoom(live.GameRoom(payload.GameID), c)

	case live.EventUpdateGame:
		var payload updateGamePayload
		if err := json.Unmarshal(data, &payload); err != nil || payload.GameID <= 0 {
			c.Send(live.EventErrorMessage, "updateGame requires a positive gameId")
			return
		}
		h.handleUpdateGame(c, actor, payload)

	default:
		c.Send(live.EventErrorMessage, "unknown event: "+event)
	}
}

// handleUpdateGame pushes the update through the persisted score path. The
// service broadcasts the refreshed game to the room after committing, so
// nothing is echoed here on success.
func (h *WebSocketHandler) handleUpdateGame(c *live.Client, actor *models.User, payload updateGamePayload) {
	ctx, cancel := context.WithTimeout(context.Background(), wsEventTimeout)
	defer cancel()

	if _, err := h.gameService.UpdateScore(ctx, payload.GameID, payload.ScoreUpdateInput, actor); err != nil {
		h.logger.Warn("websocket game update rejected",
			slog.String("client_id", c.ID),
			slog.Int("game_id", payload.GameID),
			slog.Any("error", err))
		c.Send(live.EventErrorMessage, err.Error())
	}
}
