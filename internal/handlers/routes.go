package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"todoapp/internal/telemetry"
)

// RouterOptions configures the optional middleware around the API.
type RouterOptions struct {
	// CORSOrigin is the browser origin allowed to call the API. Empty disables CORS headers.
	CORSOrigin string
	// Metrics enables request metrics and GET /metrics when non-nil.
	Metrics *telemetry.Metrics
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// NewRouter wires the todo routes and middleware.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceRequests(tp))
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	if opts.CORSOrigin != "" {
		r.Use(withCORS(opts.CORSOrigin))
	}
	if opts.Metrics != nil {
		r.Use(instrument(opts.Metrics))
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/healthz", h.Health)

	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", h.ListTodos)
		r.Post("/", h.CreateTodo)
		r.Put("/{id}", h.UpdateTodo)
		r.Delete("/{id}", h.DeleteTodo)
	})

	return r
}
