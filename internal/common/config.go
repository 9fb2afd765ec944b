package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration, loaded with priority
// default -> file -> env -> CLI (see LoadFromFiles, applyEnvOverrides and
// ApplyFlagOverrides).
type Config struct {
	Environment string        `toml:"environment"`  // "local" or "production" - affects URL scheme for server_host
	Domain      string        `toml:"domain"`       // public domain name, used to build default webhook/server URLs
	CORSOrigins []string      `toml:"cors_origins"` // allowed CORS origins for the HTTP surface
	Server      ServerConfig  `toml:"server"`
	Queue       QueueConfig   `toml:"queue"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Crawler     CrawlerConfig `toml:"crawler"`
	LLM         LLMConfig     `toml:"llm"`
	Webhook     WebhookConfig `toml:"webhook"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// QueueConfig describes the broker and result backend of spec.md §6:
// "Queue broker. URL form redis://host:port/db ... worker concurrency
// and time limits as in §5."
type QueueConfig struct {
	BrokerURL     string `toml:"broker_url"`     // CELERY_BROKER_URL: redis://host:port/db
	ResultBackend string `toml:"result_backend"` // CELERY_RESULT_BACKEND
	Concurrency   int    `toml:"concurrency"`    // worker pool size for the composite crawl->enrich->deliver task
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig holds the Run store's location and retention policy.
// spec.md §6: "Task result retention: 1 hour."
type BadgerConfig struct {
	Path           string        `toml:"path"`             // database directory path
	ResetOnStartup bool          `toml:"reset_on_startup"` // delete database on startup, for clean test runs
	RunRetention   time.Duration `toml:"run_retention"`    // how long a terminal Run is kept before the retention sweep deletes it
	RetentionSweep time.Duration `toml:"retention_sweep"`  // how often the retention sweep runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "trace", "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // time format for logs (default: "15:04:05.000")
}

// CrawlerConfig configures the job board crawler of spec.md §4.4.
type CrawlerConfig struct {
	BaseURL        string        `toml:"base_url"` // job board search endpoint root
	UserAgent      string        `toml:"user_agent"`
	CourtesyDelay  time.Duration `toml:"courtesy_delay"` // minimum delay between requests to the same host
	RespectRobots  bool          `toml:"respect_robots"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// LLMProvider names a supported LLM backend. spec.md §4.3 restricts this
// to exactly two values.
type LLMProvider string

const (
	LLMProviderGoogle LLMProvider = "google"
	LLMProviderOllama LLMProvider = "ollama"
)

// LLMConfig holds the defaults used when a submit request does not fully
// specify ai_provider_config (spec.md §6).
type LLMConfig struct {
	Provider      LLMProvider `toml:"provider"`        // LLM_PROVIDER: "google" or "ollama"
	Model         string      `toml:"model"`           // LLM_MODEL
	GoogleAPIKey  string      `toml:"google_api_key"`  // GOOGLE_API_KEY
	OllamaBaseURL string      `toml:"ollama_base_url"` // OLLAMA_BASE_URL
}

// WebhookConfig holds the WEBHOOK_BASE_URL setting. The pipeline does not
// read it: each run delivers to its request's own webhook URL, which
// must be absolute.
type WebhookConfig struct {
	BaseURL string `toml:"base_url"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in findajob.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "local",
		CORSOrigins: []string{},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Queue: QueueConfig{
			BrokerURL:     "redis://localhost:6379/0",
			ResultBackend: "redis://localhost:6379/1",
			Concurrency:   10,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data",
				RunRetention:   time.Hour,
				RetentionSweep: 5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Crawler: CrawlerConfig{
			BaseURL:        "https://jobs.example.com",
			UserAgent:      "findajob-crawler/1.0",
			CourtesyDelay:  2 * time.Second,
			RespectRobots:  true,
			RequestTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider: LLMProviderGoogle,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, applied in order
// over the defaults (later files override earlier ones), then applies
// environment variable overrides. CLI flags are applied afterward by the
// caller via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies the environment knobs of spec.md §6, plus the
// LLM and storage additions SPEC_FULL.md layers on top.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = env
	}
	if domain := os.Getenv("DOMAIN"); domain != "" {
		config.Domain = domain
	}
	if origins := os.Getenv("BACKEND_CORS_ORIGINS"); origins != "" {
		config.CORSOrigins = splitOrigins(origins)
	}

	if broker := os.Getenv("CELERY_BROKER_URL"); broker != "" {
		config.Queue.BrokerURL = broker
	}
	if backend := os.Getenv("CELERY_RESULT_BACKEND"); backend != "" {
		config.Queue.ResultBackend = backend
	}

	if base := os.Getenv("WEBHOOK_BASE_URL"); base != "" {
		config.Webhook.BaseURL = base
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.LLM.GoogleAPIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.OllamaBaseURL = baseURL
	}

	if path := os.Getenv("BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// splitOrigins parses BACKEND_CORS_ORIGINS, accepting either a comma
// separated list or a JSON array of strings.
func splitOrigins(value string) []string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") {
		var origins []string
		if err := json.Unmarshal([]byte(trimmed), &origins); err == nil {
			return origins
		}
	}

	parts := strings.Split(trimmed, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags have the highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// ServerURL returns the base URL the HTTP surface is reachable at,
// using https in production and http otherwise (spec.md §6:
// "ENVIRONMENT local|production affects URL scheme for server_host").
func (c *Config) ServerURL() string {
	scheme := "http"
	if c.IsProduction() {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Server.Host, c.Server.Port)
}

// ValidateCronSchedule validates a cron schedule expression.
func ValidateCronSchedule(schedule string) error {
	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields, got %d", len(parts))
	}
	return nil
}
