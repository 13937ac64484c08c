package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/sirupsen/logrus"
)

// Service manages contributor count jobs.
//go:generate mockgen -destination mock/service.go -package mock github.com/m-zajac/contribcount/internal/api/http Service
type Service interface {
	Create(req app.JobRequest) (string, error)
	Get(id string) (app.JobSnapshot, error)
	Probe(ctx context.Context, req app.JobRequest, count int) (*app.ProbeResult, error)
}

// NewMux creates router for app's http server
func NewMux(service Service, timeout time.Duration, l logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(NewLoggingMiddleware(l))
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware)
	r.Use(NewTimeoutMiddleware(timeout))

	r.Get("/health", NewHealthHandler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/start", NewStartHandler(service, l))
		r.Get("/status/{jobId}", NewStatusHandler(service, l))
		r.Get("/result/{jobId}", NewResultHandler(service, l))
		r.Get("/debug/{platform}/{org}", NewProbeHandler(service, l))
	})

	return r
}
