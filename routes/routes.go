package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hackmate/hackathon-system/handlers"
	"github.com/hackmate/hackathon-system/middleware"
)

// SetupRoutes настраивает все маршруты приложения на переданном роутере.
func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	hackathonHandler *handlers.HackathonHandler,
	applicationHandler *handlers.ApplicationHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
	allowedOrigins []string,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator([]byte(jwtSecret))

	router.Post("/auth/signup", authHandler.SignUp)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/hackathons", func(r chi.Router) {
		// Публичные маршруты просмотра
		r.Get("/", hackathonHandler.ListHandler)
		r.Get("/{hackathonID}", hackathonHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", hackathonHandler.CreateHandler)
			r.Put("/{hackathonID}", hackathonHandler.UpdateHandler)

			r.Post("/{hackathonID}/apply", applicationHandler.ApplyHandler)

			// Маршруты организатора
			r.Get("/{hackathonID}/applications", applicationHandler.ListByHackathonHandler)
			r.Get("/{hackathonID}/applications/stats", applicationHandler.StatsHandler)
		})
	})

	router.Route("/applications", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/mine", applicationHandler.MineHandler)
		r.Get("/{applicationID}", applicationHandler.GetByIDHandler)
		r.Post("/{applicationID}/payment", applicationHandler.ConfirmPaymentHandler)
		r.Patch("/{applicationID}/status", applicationHandler.UpdateStatusHandler)
		r.Delete("/{applicationID}", applicationHandler.WithdrawHandler)
	})

	router.Get("/ws/hackathons/{hackathonID}", webSocketHandler.ServeWs)
}
