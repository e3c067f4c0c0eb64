package routes

import (
	"net/http"

	"github.com/courtside/league-system/handlers"
	"github.com/courtside/league-system/middleware"
	"github.com/courtside/league-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Teams     *handlers.TeamHandler
	Players   *handlers.PlayerHandler
	Games     *handlers.GameHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(h Handlers, auth *middleware.Auth, allowedOrigins []string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	staffOnly := auth.RequireRoles(models.RoleAdmin, models.RoleCoach)
	adminOnly := auth.RequireRoles(models.RoleAdmin)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Get("/me", h.Auth.Me)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Teams.List)
			r.Get("/{teamID}", h.Teams.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)

				r.With(staffOnly).Post("/", h.Teams.Create)
				r.With(staffOnly).Put("/{teamID}", h.Teams.Update)
				r.With(adminOnly).Delete("/{teamID}", h.Teams.Delete)

				r.With(staffOnly).Post("/{teamID}/players", h.Teams.AddPlayer)
				r.With(staffOnly).Delete("/{teamID}/players/{playerID}", h.Teams.RemovePlayer)
				r.With(staffOnly).Put("/{teamID}/logo", h.Teams.UploadLogo)
			})
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.Players.List)
			r.Get("/{playerID}", h.Players.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)
				r.Use(staffOnly)

				r.Post("/", h.Players.Create)
				r.Put("/{playerID}", h.Players.Update)
				r.Delete("/{playerID}", h.Players.Delete)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.Games.List)
			r.Get("/{gameID}", h.Games.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)

				r.With(adminOnly).Post("/", h.Games.Create)
				r.With(adminOnly).Delete("/{gameID}", h.Games.Delete)
				r.With(staffOnly).Put("/{gameID}", h.Games.Update)
				r.With(staffOnly).Put("/{gameID}/score", h.Games.UpdateScore)
			})
		})
	})

	// The websocket handshake carries its own token, so it bypasses the
	// header-based Authenticate middleware.
	router.Get("/ws", h.WebSocket.ServeWS)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return router
}
