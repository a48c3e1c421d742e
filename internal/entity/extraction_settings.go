package entity

import "time"

// ExtractionSettings is the stored per-owner LLM configuration.
type ExtractionSettings struct {
	OwnerID   string    `json:"owner_id" validate:"required"`
	APIKey    string    `json:"-"`
	ModelName string    `json:"model_name"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the record before it is persisted.
func (s *ExtractionSettings) Validate() error {
	return validatorInstance().Struct(s)
}

// ExtractionConfig is what one orchestrator run sees. It is resolved per run
// from stored settings and never read from process-wide state.
type ExtractionConfig struct {
	APIKey    string
	ModelName string
	Enabled   bool
}

// APIKeyPresent reports whether an API key is available for this run.
func (c ExtractionConfig) APIKeyPresent() bool { return c.APIKey != "" }

// LLMEnabled is true only when the owner enabled extraction and a key exists.
func (c ExtractionConfig) LLMEnabled() bool { return c.Enabled && c.APIKeyPresent() }

// ResolveConfig derives a run configuration from stored settings, falling back
// to the deployment's default key and model. A nil settings row means disabled.
func ResolveConfig(s *ExtractionSettings, defaultKey, defaultModel string) ExtractionConfig {
	if s == nil {
		return ExtractionConfig{ModelName: defaultModel}
	}
	cfg := ExtractionConfig{APIKey: s.APIKey, ModelName: s.ModelName, Enabled: s.Enabled}
	if cfg.APIKey == "" {
		cfg.APIKey = defaultKey
	}
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel
	}
	return cfg
}
