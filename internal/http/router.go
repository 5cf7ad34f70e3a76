package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig collects the handlers and middleware served by NewRouter. Nil
// handlers leave their routes unregistered.
type RouterConfig struct {
	Auth         *AuthHandler
	Clients      *ClientHandler
	Appointments *AppointmentHandler
	Measurements *MeasurementHandler
	Dashboard    *DashboardHandler
	Health       *HealthHandler

	// Sessions gates every route outside the public set.
	Sessions SessionValidator

	Media          http.Handler
	MetricsHandler http.Handler

	// Middleware wraps every route, outermost first.
	Middleware  []mux.MiddlewareFunc
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.StrictSlash(true)
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	if cfg.Auth != nil {
		router.HandleFunc("/register", cfg.Auth.Register).Methods(http.MethodPost)
		router.HandleFunc("/sessions", cfg.Auth.CreateSession).Methods(http.MethodPost)
		router.HandleFunc("/sessions/current", cfg.Auth.DeleteCurrentSession).Methods(http.MethodDelete)
		router.HandleFunc("/sessions/refresh", cfg.Auth.RefreshSession).Methods(http.MethodPost)
	}
	if cfg.Health != nil {
		router.HandleFunc("/healthz", cfg.Health.Get).Methods(http.MethodGet)
	}
	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}
	if cfg.Media != nil {
		router.PathPrefix("/media/").Handler(cfg.Media).Methods(http.MethodGet, http.MethodHead)
	}

	protected := router.NewRoute().Subrouter()
	if cfg.Sessions != nil {
		protected.Use(mux.MiddlewareFunc(RequireSession(cfg.Sessions, cfg.Logger)))
	}

	if cfg.Auth != nil {
		protected.HandleFunc("/me", cfg.Auth.Me).Methods(http.MethodGet)
	}
	if cfg.Dashboard != nil {
		protected.HandleFunc("/dashboard", cfg.Dashboard.Get).Methods(http.MethodGet)
	}
	if cfg.Clients != nil {
		protected.HandleFunc("/clients", cfg.Clients.List).Methods(http.MethodGet)
		protected.HandleFunc("/clients", cfg.Clients.Create).Methods(http.MethodPost)
		protected.HandleFunc("/clients/{id}", cfg.Clients.Get).Methods(http.MethodGet)
		protected.HandleFunc("/clients/{id}", cfg.Clients.Update).Methods(http.MethodPatch)
		protected.HandleFunc("/clients/{id}", cfg.Clients.Delete).Methods(http.MethodDelete)
	}
	if cfg.Measurements != nil {
		protected.HandleFunc("/clients/{id}/measurements", cfg.Measurements.List).Methods(http.MethodGet)
		protected.HandleFunc("/clients/{id}/measurements", cfg.Measurements.Record).Methods(http.MethodPost)
		protected.HandleFunc("/clients/{id}/measurements/latest", cfg.Measurements.Latest).Methods(http.MethodGet)
		protected.HandleFunc("/clients/{id}/progress", cfg.Measurements.Progress).Methods(http.MethodGet)
	}
	if cfg.Appointments != nil {
		protected.HandleFunc("/appointments", cfg.Appointments.List).Methods(http.MethodGet)
		protected.HandleFunc("/appointments", cfg.Appointments.Create).Methods(http.MethodPost)
		protected.HandleFunc("/appointments/{id}/status", cfg.Appointments.SetStatus).Methods(http.MethodPut)
		protected.HandleFunc("/appointments/{id}/cancel", cfg.Appointments.Cancel).Methods(http.MethodPost)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Session-Token", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeError(r.Context(), w, http.StatusNotFound, nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{
		Message: "Método no permitido.",
		Error:   "method_not_allowed",
	})
}
