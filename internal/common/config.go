package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Render   RenderConfig
	OCR      OCRConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Watch    WatchConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string // postgres://... or sqlite:<path>
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// LLMConfig holds the provider defaults. Per-run key and model come from the
// creator's extraction settings; these are only fallbacks.
type LLMConfig struct {
	BaseURL       string
	Model         string
	APIKey        string
	Temperature   float32
	MaxTokens     int
	MaxInputChars int
	Timeout       time.Duration
	StrictSchema  bool
}

type RenderConfig struct {
	Pdftoppm      string
	DPI           int
	MaxPages      int
	HEICConverter string
}

// OCRConfig enables local tesseract for scanned documents the model could
// not read.
type OCRConfig struct {
	Enabled   bool
	Tesseract string
	Lang      string
	PSM       int
}

type StorageConfig struct {
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3UseSSL     bool
	MaxFileBytes int64
	HTTPTimeout  time.Duration
}

type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

type WatchConfig struct {
	Dir     string
	OwnerID string
}

type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers every key with its default so AutomaticEnv can see it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db.url", "sqlite:survey.db")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db.dial_timeout", 3*time.Second)
	v.SetDefault("db.statement_timeout", time.Duration(0))

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.max_tokens", 4000)
	v.SetDefault("openai.max_input_chars", 24000)
	v.SetDefault("openai.timeout", 90*time.Second)
	v.SetDefault("openai.strict_schema", false)

	v.SetDefault("render.pdftoppm", "pdftoppm")
	v.SetDefault("render.dpi", 200)
	v.SetDefault("render.max_pages", 10)
	v.SetDefault("render.heic_converter", "heif-convert")

	v.SetDefault("ocr.enabled", false)
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.lang", "eng")
	v.SetDefault("ocr.psm", 6)

	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_access_key", "")
	v.SetDefault("storage.s3_secret_key", "")
	v.SetDefault("storage.s3_use_ssl", true)
	v.SetDefault("storage.max_file_bytes", int64(50<<20))
	v.SetDefault("storage.http_timeout", 60*time.Second)

	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.size", 64)
	v.SetDefault("queue.job_timeout", 10*time.Minute)

	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.owner_id", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads defaults, an optional config file, the environment
// (db.url <- DB_URL, openai.api_key <- OPENAI_API_KEY) and any flags already
// bound to v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			DSN:              v.GetString("db.url"),
			MaxConns:         v.GetInt32("db.max_conns"),
			MinConns:         v.GetInt32("db.min_conns"),
			MaxConnLifetime:  v.GetDuration("db.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("db.max_conn_idle_time"),
			DialTimeout:      v.GetDuration("db.dial_timeout"),
			StatementTimeout: v.GetDuration("db.statement_timeout"),
		},
		Server: ServerConfig{
			HTTPAddr: v.GetString("server.http_addr"),
			GRPCAddr: v.GetString("server.grpc_addr"),
		},
		LLM: LLMConfig{
			BaseURL:       v.GetString("openai.base_url"),
			Model:         v.GetString("openai.model"),
			APIKey:        v.GetString("openai.api_key"),
			Temperature:   float32(v.GetFloat64("openai.temperature")),
			MaxTokens:     v.GetInt("openai.max_tokens"),
			MaxInputChars: v.GetInt("openai.max_input_chars"),
			Timeout:       v.GetDuration("openai.timeout"),
			StrictSchema:  v.GetBool("openai.strict_schema"),
		},
		Render: RenderConfig{
			Pdftoppm:      v.GetString("render.pdftoppm"),
			DPI:           v.GetInt("render.dpi"),
			MaxPages:      v.GetInt("render.max_pages"),
			HEICConverter: v.GetString("render.heic_converter"),
		},
		OCR: OCRConfig{
			Enabled:   v.GetBool("ocr.enabled"),
			Tesseract: v.GetString("ocr.tesseract"),
			Lang:      v.GetString("ocr.lang"),
			PSM:       v.GetInt("ocr.psm"),
		},
		Storage: StorageConfig{
			S3Endpoint:   v.GetString("storage.s3_endpoint"),
			S3AccessKey:  v.GetString("storage.s3_access_key"),
			S3SecretKey:  v.GetString("storage.s3_secret_key"),
			S3UseSSL:     v.GetBool("storage.s3_use_ssl"),
			MaxFileBytes: v.GetInt64("storage.max_file_bytes"),
			HTTPTimeout:  v.GetDuration("storage.http_timeout"),
		},
		Queue: QueueConfig{
			Workers:    v.GetInt("queue.workers"),
			Size:       v.GetInt("queue.size"),
			JobTimeout: v.GetDuration("queue.job_timeout"),
		},
		Watch: WatchConfig{
			Dir:     v.GetString("watch.dir"),
			OwnerID: v.GetString("watch.owner_id"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	return cfg, nil
}

// Validate rejects impossible values.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "db.url is required", ErrInvalidInput)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return NewAppError(CodeConfig, "db.min_conns exceeds db.max_conns", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 0.1 {
		return NewAppError(CodeConfig, fmt.Sprintf("openai.temperature %.2f outside [0, 0.1]", c.LLM.Temperature), ErrInvalidInput)
	}
	if c.Render.DPI < 50 || c.Render.DPI > 600 {
		return NewAppError(CodeConfig, fmt.Sprintf("render.dpi %d outside [50, 600]", c.Render.DPI), ErrInvalidInput)
	}
	if c.Render.MaxPages < 0 {
		return NewAppError(CodeConfig, "render.max_pages must be >= 0", ErrInvalidInput)
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return NewAppError(CodeConfig, fmt.Sprintf("ocr.psm %d outside [0, 13]", c.OCR.PSM), ErrInvalidInput)
	}
	if c.Queue.Workers < 1 || c.Queue.Size < 1 {
		return NewAppError(CodeConfig, "queue.workers and queue.size must be positive", ErrInvalidInput)
	}
	if c.Watch.Dir != "" && c.Watch.OwnerID == "" {
		return NewAppError(CodeConfig, "watch.owner_id is required when watch.dir is set", ErrInvalidInput)
	}
	if c.Storage.MaxFileBytes <= 0 {
		return NewAppError(CodeConfig, "storage.max_file_bytes must be positive", ErrInvalidInput)
	}
	return nil
}
