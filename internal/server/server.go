package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/metrics"
	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
)

type JobStore interface {
	Create(ctx context.Context, job *entity.ExtractionJob) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)
}

type ResponseStore interface {
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]entity.SurveyResponse, error)
}

type SettingsStore interface {
	GetByOwner(ctx context.Context, ownerID string) (*entity.ExtractionSettings, error)
	Upsert(ctx context.Context, s *entity.ExtractionSettings) error
}

// Runs starts extraction runs, either on the caller's goroutine or queued.
// async.ProcessorQueue implements it.
type Runs interface {
	Do(ctx context.Context, job async.Job) (pipeline.Result, error)
	Enqueue(ctx context.Context, job async.Job) error
}

type Exporter interface {
	ExportJobXLSX(ctx context.Context, jobID uuid.UUID) ([]byte, error)
}

// HealthFunc reports whether the service's dependencies are usable.
type HealthFunc func(ctx context.Context) error

// Deps is everything the HTTP API needs. Registry and Gatherer may be nil,
// in which case request metrics and /metrics are off.
type Deps struct {
	Jobs      JobStore
	Responses ResponseStore
	Settings  SettingsStore
	Runs      Runs
	Exporter  Exporter
	Health    HealthFunc
	Registry  prometheus.Registerer
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

type Server struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{deps: deps, logger: deps.Logger}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	if s.deps.Registry != nil {
		r.Use(metrics.NewMiddleware(s.deps.Registry).Handler)
	}
	r.Use(
		chiMiddleware.RequestID,
		requestContext(s.logger),
		requestLogger,
		chiMiddleware.Recoverer,
	)

	r.Get("/healthz", s.healthz)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs", s.createJob)
		r.Route("/jobs/{id}", func(r chi.Router) {
			r.Get("/", s.getJob)
			r.Post("/process", s.runJob(false))
			r.Post("/retry", s.runJob(true))
			r.Get("/responses", s.listResponses)
			r.Get("/export.xlsx", s.exportJob)
		})
		r.Get("/settings/{owner}", s.getSettings)
		r.Put("/settings/{owner}", s.putSettings)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
