package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/nadavital/pulse/internal/cache"
	"github.com/nadavital/pulse/internal/config"
	"github.com/nadavital/pulse/internal/gate"
	"github.com/nadavital/pulse/internal/llm"
	"github.com/nadavital/pulse/internal/store"
)

func NewRouter(cfg *config.Config, s *store.Store, c *cache.Manager, g *gate.Gate, llmClient *llm.Client, clock clockwork.Clock) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)

	handlers := NewHandlers(cfg, s, c, g, llmClient, clock)
	limiter := NewRateLimiter(120, time.Minute)

	// Public endpoints
	r.Get("/health", handlers.Health)

	// API v1 routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg))
		r.Use(RateLimitMiddleware(limiter))
		r.Use(JSONContentType)

		r.Post("/signals/food", handlers.IngestFood)
		r.Post("/signals/workout", handlers.IngestWorkout)
		r.Post("/signals/weight", handlers.IngestWeight)
		r.Post("/signals/reminder", handlers.IngestReminder)
		r.Post("/signals/behavior", handlers.IngestBehavior)

		r.Get("/coach/context", handlers.CoachContext)
		r.Post("/coach/message", handlers.CoachMessage)
		r.Get("/coach/eligibility", handlers.CoachEligibility)
		r.Post("/coach/answer", handlers.CoachAnswer)
	})

	return r
}
