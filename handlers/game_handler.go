package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/courtside/league-system/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repositories.GameFilter

	query := r.URL.Query()
	if teamStr := query.Get("team"); teamStr != "" {
		teamID, err := parsePositiveInt(teamStr, "team")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		filter.TeamID = &teamID
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.GameStatus(statusStr)
		filter.Status = &status
	}
	if fromStr := query.Get("from"); fromStr != "" {
		from, err := parseDate(fromStr, "from")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		filter.From = &from
	}
	if toStr := query.Get("to"); toStr != "" {
		to, err := parseDate(toStr, "to")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		filter.To = &to
	}

	games, err := h.gameService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	listResponse(w, r, games, len(games))
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.Create(r.Context(), input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	dataResponse(w, r, http.StatusCreated, game)
}

func (h *GameHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetByID(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	dataResponse(w, r, http.StatusOK, game)
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.UpdateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.Update(r.Context(), gameID, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	dataResponse(w, r, http.StatusOK, game)
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.gameService.Delete(r.Context(), gameID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	messageResponse(w, r, http.StatusOK, "game deleted")
}

// UpdateScore persists the score change and fans the refreshed game out to
// the game's room before responding.
func (h *GameHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.ScoreUpdateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.UpdateScore(r.Context(), gameID, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	dataResponse(w, r, http.StatusOK, game)
}

func parseDate(value, param string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s date: %q (expected RFC3339 or YYYY-MM-DD)", param, value)
}
