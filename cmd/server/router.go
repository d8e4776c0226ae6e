package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/clarity-api/internal/api"
	apiMiddleware "github.com/phrazzld/clarity-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.directory, app.jwtService, &app.config.Auth, app.logger)
	sessionHandler := api.NewSessionHandler(app.sessions, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		authHandler.Routes(r)
		r.Get("/catalog", api.GetCatalog)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			sessionHandler.Routes(r)
		})
	})

	r.Get("/health", api.Health)

	return r
}
