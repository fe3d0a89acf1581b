package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/strafelabs/bracket-engine/handlers"
	"github.com/strafelabs/bracket-engine/middleware"
)

// SetupRoutes mounts the public read endpoints and the admin-gated score
// entry operations.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	bracketHandler *handlers.BracketHandler,
	teamHandler *handlers.TeamHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public read-only surface.
	router.Get("/bracket", bracketHandler.GetBracketHandler)
	router.Get("/teams", teamHandler.ListTeamsHandler)
	router.Get("/ws/bracket", webSocketHandler.ServeWs)

	// Admin operations: score entry, live flags, reset, team setup.
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole("admin"))

		r.Post("/matches/{matchID}/result", bracketHandler.RecordResultHandler)
		r.Post("/matches/{matchID}/live", bracketHandler.SetLiveHandler)
		r.Post("/bracket/reset", bracketHandler.ResetBracketHandler)
		r.Post("/teams", teamHandler.CreateTeamHandler)
		r.Post("/teams/{teamID}/logo", teamHandler.UploadLogoHandler)
	})
}
