package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/scrimworks/scrimbot/handlers"
	"github.com/scrimworks/scrimbot/middleware"
	"github.com/scrimworks/scrimbot/services"
)

func SetupRoutes(
	router *chi.Mux,
	authService services.AuthService,
	authHandler *handlers.AuthHandler,
	wizardHandler *handlers.WizardHandler,
	scrimHandler *handlers.ScrimHandler,
	teamHandler *handlers.TeamHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/login", authHandler.Login)

	router.Route("/scrims", func(r chi.Router) {
		// Public read surface: listing, autocomplete and detail views.
		r.Get("/", scrimHandler.ListScrims)
		r.Get("/search", scrimHandler.SearchScrims)
		r.Get("/{scrimID}", scrimHandler.GetScrim)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authService))
			r.Use(middleware.Authorize("organizer"))

			r.Delete("/{scrimID}", scrimHandler.DeleteScrim)
		})

		// Team commands issued through a scrim's register channel.
		r.Route("/channel/{channelID}/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)
			r.Post("/join", teamHandler.JoinTeam)
			r.Post("/leave", teamHandler.LeaveTeam)
		})
	})

	router.Route("/wizard", func(r chi.Router) {
		r.Use(middleware.Authenticate(authService))
		r.Use(middleware.Authorize("organizer"))

		r.Post("/", wizardHandler.CreateSession)
		r.Get("/{sessionID}", wizardHandler.GetSession)
		r.Delete("/{sessionID}", wizardHandler.DeleteSession)
		r.Post("/{sessionID}/confirm", wizardHandler.Confirm)
		r.Post("/{sessionID}/{step}", wizardHandler.SubmitStep)
	})

	router.Get("/ws/scrims/{scrimID}", webSocketHandler.ServeScrim)
}
