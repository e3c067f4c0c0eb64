package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/courtside/league-system/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGameService struct {
	CreateFunc      func(ctx context.Context, input services.CreateGameInput, actor *models.User) (*models.Game, error)
	GetByIDFunc     func(ctx context.Context, id int) (*models.Game, error)
	ListFunc        func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error)
	UpdateFunc      func(ctx context.Context, id int, input services.UpdateGameInput, actor *models.User) (*models.Game, error)
	DeleteFunc      func(ctx context.Context, id int, actor *models.User) error
	UpdateScoreFunc func(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error)
}

func (f *fakeGameService) Create(ctx context.Context, input services.CreateGameInput, actor *models.User) (*models.Game, error) {
	return f.CreateFunc(ctx, input, actor)
}

func (f *fakeGameService) GetByID(ctx context.Context, id int) (*models.Game, error) {
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeGameService) List(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	return f.ListFunc(ctx, filter)
}

func (f *fakeGameService) Update(ctx context.Context, id int, input services.UpdateGameInput, actor *models.User) (*models.Game, error) {
	return f.UpdateFunc(ctx, id, input, actor)
}

func (f *fakeGameService) Delete(ctx context.Context, id int, actor *models.User) error {
	return f.DeleteFunc(ctx, id, actor)
}

func (f *fakeGameService) UpdateScore(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error) {
	return f.UpdateScoreFunc(ctx, id, input, actor)
}

// newScoreRequest builds an authenticated PUT against the score route with
// the gameID path parameter resolved the way chi does it.
func newScoreRequest(t *testing.T, gameID, body string, actor *models.User) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/games/"+gameID+"/score", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("gameID", gameID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if actor != nil {
		ctx = middleware.ContextWithUser(ctx, actor)
	}
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGameHandlerUpdateScore(t *testing.T) {
	coach := &models.User{ID: 5, Role: models.RoleCoach}

	t.Run("valid update returns the refreshed game in the envelope", func(t *testing.T) {
		svc := &fakeGameService{
			UpdateScoreFunc: func(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error) {
				require.Equal(t, 7, id)
				require.NotNil(t, input.HomeScore)
				assert.Equal(t, 52, *input.HomeScore)
				assert.Equal(t, coach, actor)
				return &models.Game{ID: 7, HomeScore: 52, AwayScore: 48, Status: models.GameStatusInProgress}, nil
			},
		}
		handler := NewGameHandler(svc)

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "7", `{"homeScore": 52}`, coach))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(52), data["home_score"])
	})

	t.Run("unknown game maps to 404", func(t *testing.T) {
		svc := &fakeGameService{
			UpdateScoreFunc: func(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error) {
				return nil, services.ErrGameNotFound
			},
		}
		handler := NewGameHandler(svc)

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "404", `{"homeScore": 52}`, coach))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-participating coach maps to 403", func(t *testing.T) {
		svc := &fakeGameService{
			UpdateScoreFunc: func(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error) {
				return nil, services.ErrNotGameParticipant
			},
		}
		handler := NewGameHandler(svc)

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "7", `{"homeScore": 52}`, coach))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("finished game maps to 400", func(t *testing.T) {
		svc := &fakeGameService{
			UpdateScoreFunc: func(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error) {
				return nil, services.ErrGameNotEditable
			},
		}
		handler := NewGameHandler(svc)

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "7", `{"status": "in_progress"}`, coach))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure returns the field map", func(t *testing.T) {
		svc := &fakeGameService{
			UpdateScoreFunc: func(ctx context.Context, id int, input services.ScoreUpdateInput, actor *models.User) (*models.Game, error) {
				return nil, &services.ValidationError{Fields: map[string]string{"homeScore": "must not be negative"}}
			},
		}
		handler := NewGameHandler(svc)

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "7", `{"homeScore": -1}`, coach))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["success"])
		errs := body["errors"].(map[string]interface{})
		assert.Contains(t, errs, "homeScore")
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		handler := NewGameHandler(&fakeGameService{})

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "7", `{"home_score": 52}`, coach))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric game id is rejected", func(t *testing.T) {
		handler := NewGameHandler(&fakeGameService{})

		rec := httptest.NewRecorder()
		handler.UpdateScore(rec, newScoreRequest(t, "seven", `{"homeScore": 52}`, coach))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGameHandlerList(t *testing.T) {
	t.Run("query filters are parsed into the repository filter", func(t *testing.T) {
		var captured repositories.GameFilter
		svc := &fakeGameService{
			ListFunc: func(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
				captured = filter
				return []*models.Game{{ID: 1}, {ID: 2}}, nil
			},
		}
		handler := NewGameHandler(svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/games?team=3&status=completed&from=2026-01-01&to=2026-02-01T00:00:00Z", nil)
		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured.TeamID)
		assert.Equal(t, 3, *captured.TeamID)
		require.NotNil(t, captured.Status)
		assert.Equal(t, models.GameStatusCompleted, *captured.Status)
		require.NotNil(t, captured.From)
		require.NotNil(t, captured.To)

		body := decodeEnvelope(t, rec)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("bad team filter is rejected", func(t *testing.T) {
		handler := NewGameHandler(&fakeGameService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/games?team=varsity", nil)
		handler.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date filter is rejected", func(t *testing.T) {
		handler := NewGameHandler(&fakeGameService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/games?from=tomorrow", nil)
		handler.List(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
