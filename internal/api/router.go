package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/spendsight/backend/internal/service"
)

// NewRouter mounts the full REST surface.
func NewRouter(svc *service.Service, log zerolog.Logger) http.Handler {
	h := NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.listExpenses)
			r.Post("/", h.createExpense)
			r.Put("/", h.updateExpense)
			r.Delete("/", h.deleteExpense)
		})

		r.Route("/income", func(r chi.Router) {
			r.Get("/", h.listIncomes)
			r.Post("/", h.createIncome)
			r.Put("/", h.updateIncome)
			r.Delete("/", h.deleteIncome)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", h.listSubscriptions)
			r.Post("/", h.createSubscription)
			r.Put("/", h.updateSubscription)
			r.Delete("/", h.deleteSubscription)
			r.Post("/process", h.processSubscriptions)
		})

		r.Get("/summary", h.summary)
		r.Get("/dashboard", h.dashboard)
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
