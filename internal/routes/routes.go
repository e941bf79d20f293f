package routes

import (
	"github.com/BradenHooton/gatehouse/internal/auth"
	"github.com/BradenHooton/gatehouse/internal/handlers"
	"github.com/BradenHooton/gatehouse/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	authorizer auth.Authorizer,
	loginLimit middleware.RateLimitConfig,
) {
	router.Route("/auth", func(r chi.Router) {
		// Public routes - flood limited per client address
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(loginLimit))
			r.Post("/token", authHandler.Token)
			r.Post("/register", authHandler.Register)
		})

		// Protected routes - bearer token required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(authorizer))
			r.Get("/users/me", userHandler.GetMe)
			r.Put("/users/me", userHandler.UpdateMe)
		})
	})
}
