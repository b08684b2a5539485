package http

import (
	"log/slog"
	"net/http"
	"time"

	"eventmanager/internal/delivery/http/controllers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

// RouterDeps are the controllers and collaborators the router wires together.
type RouterDeps struct {
	Events         *controllers.EventController
	Registrations  *controllers.RegistrationController
	Health         *controllers.HealthController
	Verifier       domain.TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
}

// apiMethods are the methods the routes below are registered with.
var apiMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// NewRouter initializes the HTTP router with all application routes.
// Requests pass through CORS, logging and metrics before reaching the mux; every /events*
// route also requires a bearer token.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(deps.Verifier, deps.Logger)

	// Events
	mux.HandleFunc("GET /events", auth(deps.Events.ListEvents))
	mux.HandleFunc("POST /events", auth(deps.Events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(deps.Events.GetEvent))
	mux.HandleFunc("PUT /events/{eventID}", auth(deps.Events.ReplaceEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(deps.Events.PatchEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(deps.Events.DeleteEvent))

	// Registrations of the caller
	mux.HandleFunc("GET /events_register", auth(deps.Registrations.ListMyRegistrations))
	mux.HandleFunc("POST /events_register", auth(deps.Registrations.CreateRegistration))
	mux.HandleFunc("GET /events_register/{registrationID}", auth(deps.Registrations.GetMyRegistration))
	mux.HandleFunc("PUT /events_register/{registrationID}", auth(deps.Registrations.ReplaceRegistration))
	mux.HandleFunc("PATCH /events_register/{registrationID}", auth(deps.Registrations.PatchRegistration))
	mux.HandleFunc("DELETE /events_register/{registrationID}", auth(deps.Registrations.DeleteRegistration))

	// Operations
	mux.HandleFunc("GET /healthz", deps.Health.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.LoggingMiddleware(deps.Logger, handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: apiMethods,
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", middleware.RequestIDHeader},
		MaxAge:         24 * time.Hour,
	}, handler)
	return handler
}
