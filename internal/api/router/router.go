package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/healthconnect/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/healthconnect/internal/http/middleware"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Health             *handlers.HealthHandler
	Auth               *handlers.AuthHandler
	Catalog            *handlers.CatalogHandler
	Contact            *handlers.ContactHandler
	Appointments       *handlers.AppointmentsHandler
	Bookings           *handlers.BookingsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter

	// Session is required for every route except health and metrics.
	Session httpmiddleware.SessionConfig
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Health)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Browser-facing routes carry a session context.
	r.Group(func(app chi.Router) {
		app.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		app.Use(httpmiddleware.Session(cfg.Session))

		if cfg.Auth != nil {
			app.Route("/auth", func(r chi.Router) {
				r.Post("/signup", cfg.Auth.Signup)
				r.Post("/login", cfg.Auth.Login)
				r.Post("/logout", cfg.Auth.Logout)
				r.Get("/me", cfg.Auth.Me)
			})
		}

		if cfg.Catalog != nil {
			app.Route("/catalog", func(r chi.Router) {
				r.Get("/specializations", cfg.Catalog.Specializations)
				r.Get("/specializations/{slug}/doctors", cfg.Catalog.Doctors)
				r.Get("/doctors/{doctorID}", cfg.Catalog.Doctor)
				r.Get("/treatment-categories", cfg.Catalog.TreatmentCategories)
				r.Get("/treatment-categories/{slug}/treatments", cfg.Catalog.Treatments)
			})
		}

		if cfg.Contact != nil {
			app.Post("/contact", cfg.Contact.Submit)
		}

		if cfg.Appointments != nil {
			app.With(httpmiddleware.RequireLogin).Get("/appointments", cfg.Appointments.ListMine)
			app.Get("/doctors/{doctorID}/access", cfg.Appointments.DoctorAccess)
		}

		if cfg.Bookings != nil {
			app.Route("/bookings", func(r chi.Router) {
				r.Get("/", cfg.Bookings.List)
				r.Post("/", cfg.Bookings.Create)
				r.Route("/{bookingID}", func(b chi.Router) {
					b.Get("/", cfg.Bookings.Get)
					b.Patch("/", cfg.Bookings.Update)
					b.Delete("/", cfg.Bookings.Delete)
					b.Post("/submit", cfg.Bookings.Submit)
					b.Post("/book-again", cfg.Bookings.BookAgain)

					b.Post("/chat", cfg.Bookings.OpenChat)
					b.Delete("/chat", cfg.Bookings.CloseChat)
					b.Get("/chat/messages", cfg.Bookings.Messages)
					b.Post("/chat/messages", cfg.Bookings.SendMessage)
					b.Get("/chat/ws", cfg.Bookings.ChatSocket)

					b.Post("/video", cfg.Bookings.OpenVideo)
					b.Delete("/video", cfg.Bookings.CloseVideo)

					b.Get("/access/ws", cfg.Bookings.AccessSocket)
				})
			})
		}
	})

	return r
}
