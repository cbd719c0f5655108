package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/example/towncal/internal/auth"
	"github.com/example/towncal/internal/config"
	"github.com/example/towncal/internal/http/ratelimit"
	"github.com/example/towncal/internal/metrics"
	"github.com/example/towncal/internal/store"
)

// NewRouter wires the submission API, the public feed, the queue admin
// endpoints, and the operational endpoints.
func NewRouter(cfg *config.Config, st *store.Store, h *Handler) http.Handler {
	r := chi.NewRouter()

	// Submission writes: 5 requests per second, burst of 10
	submitRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/calendar/events", h.CalendarEvents)

		r.Route("/submissions", func(r chi.Router) {
			r.With(submitRateLimiter.Middleware()).Post("/", h.CreateSubmission)
			r.Get("/", h.ListSubmissions)
			r.Get("/{id}", h.GetSubmission)
			r.With(submitRateLimiter.Middleware()).Put("/{id}", h.UpdateSubmission)
			r.Post("/{id}/transition", h.TransitionSubmission)
			r.Post("/{id}/publish", h.PublishSubmission)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", h.QueueDepth)
			r.Post("/process", h.ProcessQueue)
		})
	})

	return r
}
