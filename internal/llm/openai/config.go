package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// MaxTemperature keeps extraction near-deterministic.
const MaxTemperature = 0.1

// Config for the OpenAI-compatible chat completions client. API key and model
// normally arrive per request; Model here is only the fallback.
type Config struct {
	BaseURL       string        // default https://api.openai.com/v1
	Model         string        // e.g. "gpt-4o-mini"
	Temperature   float32       // clamped to [0, MaxTemperature]
	MaxTokens     int           // completion budget
	MaxInputChars int           // text prompt cap
	Timeout       time.Duration // http client timeout
	StrictSchema  bool          // if false, schema violations are sanitized and re-validated
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature < 0 || cfg.Temperature > MaxTemperature {
		cfg.Temperature = MaxTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}
