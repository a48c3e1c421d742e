// Package app wires the repositories, extraction chain and processor from a
// loaded configuration. Both binaries build on it.
package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/survey-extractor/internal/async"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/export"
	"github.com/joseph-ayodele/survey-extractor/internal/heuristic"
	"github.com/joseph-ayodele/survey-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/survey-extractor/internal/metrics"
	"github.com/joseph-ayodele/survey-extractor/internal/ocr"
	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
	"github.com/joseph-ayodele/survey-extractor/internal/render"
	"github.com/joseph-ayodele/survey-extractor/internal/repository"
	"github.com/joseph-ayodele/survey-extractor/internal/segment"
	"github.com/joseph-ayodele/survey-extractor/internal/storage"
	"github.com/joseph-ayodele/survey-extractor/internal/textextract"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Jobs      repository.ExtractionJobRepository
	Responses repository.SurveyResponseRepository
	Settings  repository.ExtractionSettingsRepository
	Fetcher   *storage.Fetcher
	Extractor *pipeline.Extractor
	Processor *pipeline.Processor
	Exporter  *export.Service
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
}

// Build opens the database, applies the schema and assembles the processor.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	fetcher, err := NewFetcher(cfg.Storage, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Jobs:      repository.NewExtractionJobRepository(db, logger),
		Responses: repository.NewSurveyResponseRepository(db, logger),
		Settings:  repository.NewExtractionSettingsRepository(db, logger),
		Fetcher:   fetcher,
		Extractor: NewExtractor(cfg, m, logger),
		Metrics:   m,
		Registry:  reg,
	}
	a.Processor = pipeline.NewProcessor(logger, a.Jobs, a.Responses, a.Settings, a.Fetcher, a.Extractor,
		pipeline.Defaults{APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model}, m)
	a.Exporter = export.NewService(a.Jobs, a.Responses, logger)
	return a, nil
}

// NewExtractor assembles the extraction chain without any storage.
func NewExtractor(cfg *common.Config, m *metrics.Metrics, logger *slog.Logger) *pipeline.Extractor {
	runner := render.ExecRunner{Logger: logger}
	e := &pipeline.Extractor{
		Text: textextract.NewExtractor(textextract.DefaultConfig(), logger),
		Renderer: render.New(render.Config{
			Pdftoppm:      cfg.Render.Pdftoppm,
			DPI:           cfg.Render.DPI,
			MaxPages:      cfg.Render.MaxPages,
			HEICConverter: cfg.Render.HEICConverter,
		}, runner, logger),
		Segmenter: segment.New(segment.DefaultConfig(), logger),
		Heuristic: heuristic.New(logger),
		LLM: openai.NewClient(openai.Config{
			BaseURL:       cfg.LLM.BaseURL,
			Model:         cfg.LLM.Model,
			Temperature:   cfg.LLM.Temperature,
			MaxTokens:     cfg.LLM.MaxTokens,
			MaxInputChars: cfg.LLM.MaxInputChars,
			Timeout:       cfg.LLM.Timeout,
			StrictSchema:  cfg.LLM.StrictSchema,
		}, logger),
		Metrics: m,
		Logger:  logger,
	}
	if cfg.OCR.Enabled {
		e.OCR = ocr.New(ocr.Config{
			Tesseract: cfg.OCR.Tesseract,
			Lang:      cfg.OCR.Lang,
			PSM:       cfg.OCR.PSM,
		}, runner, logger)
	}
	return e
}

// NewFetcher registers the local, http(s) and, when an endpoint is
// configured, s3 sources.
func NewFetcher(cfg common.StorageConfig, logger *slog.Logger) (*storage.Fetcher, error) {
	opts := []storage.Option{storage.WithMaxBytes(cfg.MaxFileBytes), storage.WithLogger(logger)}
	for _, src := range storage.NewHTTPSources(cfg.HTTPTimeout) {
		opts = append(opts, storage.WithSource(src))
	}
	if cfg.S3Endpoint != "" {
		s3, err := storage.NewS3Source(
			storage.WithEndpoint(cfg.S3Endpoint),
			storage.WithAccessKey(cfg.S3AccessKey),
			storage.WithSecretKey(cfg.S3SecretKey),
			storage.WithSSL(cfg.S3UseSSL),
		)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "s3 source", err)
		}
		opts = append(opts, storage.WithSource(s3))
	}
	return storage.NewFetcher(opts...), nil
}

// NewQueue starts a worker pool over the processor.
func (a *App) NewQueue() *async.ProcessorQueue {
	return async.NewProcessorQueue(a.Processor, a.Logger,
		async.WithWorkers(a.Config.Queue.Workers),
		async.WithQueueSize(a.Config.Queue.Size),
		async.WithProcessTimeout(a.Config.Queue.JobTimeout),
	)
}

func (a *App) Close() {
	a.DB.Close()
}
