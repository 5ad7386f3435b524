package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the transport settings NewRouter needs.
type RouterConfig struct {
	JWTSecret   []byte
	CORSOrigins []string
	Log         *slog.Logger
}

// NewRouter builds the chi router with the global middleware stack and all
// API routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Log))         // structured access log
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:       cfg.CORSOrigins,
		AllowedMethods:       []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:       []string{"Retry-After"},
		MaxAge:               600,
		OptionsSuccessStatus: http.StatusNoContent,
	}))

	auth := Authenticate(cfg.JWTSecret)
	organizer := RequireRole(model.RoleOrganizer)
	user := RequireRole(model.RoleUser)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Get("/{id}", h.GetEvent)

			r.Group(func(r chi.Router) {
				r.Use(auth, organizer)
				r.Post("/", h.CreateEvent)
				r.Put("/{id}", h.UpdateEvent)
				r.Delete("/{id}", h.DeleteEvent)
				r.Get("/organizer/my-events", h.MyEvents)
			})
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Use(auth)

			r.Group(func(r chi.Router) {
				r.Use(user)
				r.Post("/", h.Register)
				r.Get("/my", h.MyRegistrations)
				r.Delete("/{registrationID}", h.CancelRegistration)
			})

			r.Group(func(r chi.Router) {
				r.Use(organizer)
				r.Get("/event/{eventID}", h.EventRoster)
				r.Get("/all", h.OrganizerRoster)
			})
		})
	})

	return r
}
