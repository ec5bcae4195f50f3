package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Service       AppointmentService
	Logger        *slog.Logger
	Registry      *prometheus.Registry
	PostgresCheck PingFunc
	RedisCheck    PingFunc
	ServiceName   string
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) (http.Handler, error) {
	httpMetrics, err := NewHTTPMetrics(cfg.Registry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.PostgresCheck, cfg.RedisCheck, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry}))

	h := NewAppointmentHandler(cfg.Service, cfg.Logger)
	r.Route("/api/appointments", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/patient/{patientId}", h.ListByPatient)
		r.Get("/patient/{patientId}/future", h.ListFutureByPatient)
		r.Get("/doctor/{doctorId}", h.ListByDoctor)
	})

	name := cfg.ServiceName
	if name == "" {
		name = "clinic-appointments"
	}
	return otelhttp.NewHandler(r, name), nil
}
