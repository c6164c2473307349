package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/petaltask/recur/internal/platform/logger"
)

// NewRouter builds the HTTP router over the recurrence handler. Every request
// gets a context logger carrying the chi request ID.
func NewRouter(handler *RecurrenceHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(handler.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/definitions", handler.CreateDefinition)
		r.Patch("/definitions/{id}", handler.UpdateDefinition)
		r.Delete("/definitions/{id}", handler.DeleteDefinition)
		r.Post("/definitions/{id}/pause", handler.PauseDefinition)
		r.Post("/definitions/{id}/resume", handler.ResumeDefinition)
		r.Post("/definitions/{id}/regenerate", handler.RegenerateDefinition)
		r.Get("/definitions/{id}/instances", handler.ListInstances)
		r.Get("/definitions/{id}/stats", handler.GetStats)

		r.Post("/instances/{id}/complete", handler.CompleteInstance)

		r.Post("/preview", handler.Preview)
		r.Get("/health/report", handler.HealthReport)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// requestLogger stores a request-scoped logger in the context so handlers
// can tag their log lines with the request ID.
func requestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scoped := base.With(slog.String("request_id", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), scoped)))
		})
	}
}
