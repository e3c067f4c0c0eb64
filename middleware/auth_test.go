package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users map[int]*models.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error { return nil }

func (s *stubUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (s *stubUserRepo) UpdateTeamID(ctx context.Context, exec repositories.SQLExecutor, userID int, teamID *int) error {
	return nil
}

func (s *stubUserRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.User, error) {
	return nil, nil
}

func signTestToken(t *testing.T, secret string, userID int, expiry time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newTestAuth() *Auth {
	repo := &stubUserRepo{users: map[int]*models.User{
		1: {ID: 1, Email: "coach@example.com", PasswordHash: "secret-hash", Role: models.RoleCoach},
	}}
	return NewAuth("test-secret", repo)
}

func TestUserFromToken(t *testing.T) {
	auth := newTestAuth()

	t.Run("valid token resolves the user with the hash stripped", func(t *testing.T) {
		token := signTestToken(t, "test-secret", 1, time.Hour)

		user, err := auth.UserFromToken(context.Background(), token)

		require.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("wrong signing key is rejected", func(t *testing.T) {
		token := signTestToken(t, "other-secret", 1, time.Hour)

		_, err := auth.UserFromToken(context.Background(), token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signTestToken(t, "test-secret", 1, -time.Hour)

		_, err := auth.UserFromToken(context.Background(), token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token naming a deleted user is rejected", func(t *testing.T) {
		token := signTestToken(t, "test-secret", 404, time.Hour)

		_, err := auth.UserFromToken(context.Background(), token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthenticate(t *testing.T) {
	auth := newTestAuth()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, 1, user.ID)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header gets 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		auth.Authenticate(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header gets 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abcdef")

		auth.Authenticate(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid bearer token reaches the handler with the user in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "test-secret", 1, time.Hour))

		auth.Authenticate(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	auth := newTestAuth()

	handler := auth.RequireRoles(models.RoleAdmin, models.RoleCoach)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	withUser := func(req *http.Request, user *models.User) *http.Request {
		return req.WithContext(context.WithValue(req.Context(), userContextKey, user))
	}

	t.Run("listed role passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPost, "/", nil), &models.User{ID: 1, Role: models.RoleCoach})

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unlisted role gets 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPost, "/", nil), &models.User{ID: 2, Role: models.RolePlayer})

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no user in context gets 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
