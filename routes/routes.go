package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/synclinehq/syncline/app"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware. Credentials stay on: the session rides in cookies.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	// Session lifecycle endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandler.HandleSignUp)
		r.Post("/signin", deps.AuthHandler.HandleSignIn)
		r.Post("/signout", deps.AuthHandler.HandleSignOut)
		r.Post("/reset", deps.AuthHandler.HandleResetPassword)
		r.Put("/password", deps.AuthHandler.HandleUpdatePassword)
		r.Get("/session", deps.AuthHandler.HandleSession)
		r.Get("/gate", deps.AuthHandler.HandleGate)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Storage diagnostics (probes with the service-role key)
		r.Route("/diagnostics", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireSession)
			r.Use(deps.AuthMiddleware.RequireRole("authenticated"))
			r.Get("/storage", deps.StorageHandler.HandleStorageCheck)
		})

		// Contact sync (require authentication)
		r.Route("/sync", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireSession)
			r.Post("/runs", deps.SyncHandler.HandleTriggerRun)
			r.Get("/runs", deps.SyncHandler.HandleListRuns)
			r.Get("/runs/{id}", deps.SyncHandler.HandleGetRun)
			r.Get("/status", deps.SyncHandler.HandleStatus)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
