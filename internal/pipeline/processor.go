package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/metrics"
)

// Result is the summary handed back to whoever triggered a run.
type Result struct {
	Success        bool   `json:"success"`
	FormsProcessed int    `json:"formsProcessed"`
	Method         string `json:"method,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Defaults are the deployment-level fallbacks applied when an owner's
// settings row has no key or model.
type Defaults struct {
	APIKey string
	Model  string
}

// Processor drives one job from processing to completed or failed.
// It does not serialize runs of the same job; callers must (see async.ProcessorQueue).
type Processor struct {
	jobs      JobStore
	responses ResponseStore
	settings  SettingsStore
	fetcher   Fetcher
	extractor *Extractor
	defaults  Defaults
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewProcessor(
	logger *slog.Logger,
	jobs JobStore,
	responses ResponseStore,
	settings SettingsStore,
	fetcher Fetcher,
	extractor *Extractor,
	defaults Defaults,
	m *metrics.Metrics,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		jobs:      jobs,
		responses: responses,
		settings:  settings,
		fetcher:   fetcher,
		extractor: extractor,
		defaults:  defaults,
		metrics:   m,
		logger:    logger,
	}
}

// Process runs a pending job.
func (p *Processor) Process(ctx context.Context, jobID uuid.UUID) (Result, error) {
	return p.run(ctx, jobID, constants.JobStatusPending)
}

// Retry re-runs a job that is pending, completed or failed. Its previous
// responses are replaced, not appended to.
func (p *Processor) Retry(ctx context.Context, jobID uuid.UUID) (Result, error) {
	return p.run(ctx, jobID)
}

func (p *Processor) run(ctx context.Context, jobID uuid.UUID, from ...constants.JobStatus) (Result, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, p.logger).With("job_id", jobID)

	job, err := p.jobs.MarkProcessing(ctx, jobID, from...)
	if err != nil {
		log.Warn("processor.start.rejected", "error", err)
		return Result{Error: err.Error()}, err
	}
	log.Info("processor.start", "course", job.CourseName, "file_ref", job.FileRef)

	doc, err := p.fetcher.Fetch(ctx, job.FileRef)
	if err != nil {
		return p.fail(ctx, log, job, start, err)
	}

	cfg := p.resolveConfig(ctx, log, job.CreatedBy)
	out := p.extractor.Extract(ctx, doc, job.ID, job.CourseName, cfg)

	if err := p.responses.ReplaceForJob(ctx, job.ID, out.Responses); err != nil {
		return p.fail(ctx, log, job, start, err)
	}
	method := out.Method
	if err := p.jobs.MarkCompleted(ctx, job.ID, out.Candidates, len(out.Responses), method); err != nil {
		return p.fail(ctx, log, job, start, err)
	}

	p.metrics.ResponsesPersisted(string(method), len(out.Responses))
	p.metrics.RunFinished(string(method), "completed", time.Since(start))
	log.Info("processor.completed",
		"method", method,
		"path", out.Path,
		"forms", len(out.Responses),
		"candidates", out.Candidates,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Success: true, FormsProcessed: len(out.Responses), Method: string(method)}, nil
}

// resolveConfig reads the creator's settings. A read failure degrades to
// "LLM disabled" rather than failing the run.
func (p *Processor) resolveConfig(ctx context.Context, log *slog.Logger, owner string) entity.ExtractionConfig {
	s, err := p.settings.GetByOwner(ctx, owner)
	if err != nil {
		log.Warn("processor.settings.unavailable", "owner", owner, "error", err)
		s = nil
	}
	cfg := entity.ResolveConfig(s, p.defaults.APIKey, p.defaults.Model)
	log.Info("processor.config",
		"owner", owner,
		"enabled", cfg.Enabled,
		"api_key_present", cfg.APIKeyPresent(),
		"model", cfg.ModelName,
	)
	return cfg
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, job *entity.ExtractionJob, start time.Time, cause error) (Result, error) {
	msg := cause.Error()
	log.Error("processor.failed", "error", cause, "elapsed_ms", time.Since(start).Milliseconds())

	// the run's context may be what failed; still record the outcome
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.jobs.MarkFailed(markCtx, job.ID, msg); err != nil {
		log.Error("processor.mark_failed.error", "error", err)
		cause = errors.Join(cause, err)
	}
	p.metrics.RunFinished("none", "failed", time.Since(start))
	return Result{Error: msg}, common.WrapError(cause, "process job "+job.ID.String())
}
