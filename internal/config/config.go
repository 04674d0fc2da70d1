package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageBigQuery = "bigquery"
)

// LLM providers.
const (
	LLMNone      = "none"
	LLMGemini    = "gemini"
	LLMAnthropic = "anthropic"
)

// Config holds all configuration for the service.
// Values come from config.yaml; environment variables override them.
// API keys and tokens are read from the environment only.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`

	Matching MatchingConfig `yaml:"matching"`

	// VocabularyPath points at an external vocabulary file. Empty selects the embedded default.
	VocabularyPath string `yaml:"vocabulary_path" env:"VOCABULARY_PATH" env-default:""`
	// RulesPath points at an external rules file. Empty selects the embedded default.
	RulesPath string `yaml:"rules_path" env:"RULES_PATH" env-default:""`

	Storage StorageConfig `yaml:"storage"`
	GCS     GCSConfig     `yaml:"gcs"`
	LLM     LLMConfig     `yaml:"llm"`
	Slack   SlackConfig   `yaml:"slack"`
	Jobs    JobsConfig    `yaml:"jobs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	// MaxUploadBytes caps multipart uploads.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"33554432"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// MatchingConfig holds fuzzy-matching thresholds on the 0-100 scale.
type MatchingConfig struct {
	FieldThreshold float64 `yaml:"field_threshold" env:"MATCH_FIELD_THRESHOLD" env-default:"80"`
	TypeThreshold  float64 `yaml:"type_threshold" env:"MATCH_TYPE_THRESHOLD" env-default:"75"`
}

// StorageConfig selects where assessments are persisted.
type StorageConfig struct {
	Backend   string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"memory"`
	SQLiteDSN string `yaml:"sqlite_dsn" env:"SQLITE_DSN" env-default:"docrisk.db"`
	ProjectID string `yaml:"project_id" env:"GCP_PROJECT_ID" env-default:""`
	DatasetID string `yaml:"dataset_id" env:"BQ_DATASET_ID" env-default:"docrisk"`
}

type GCSConfig struct {
	// Bucket receives archived uploads. Empty disables archiving.
	Bucket string `yaml:"bucket" env:"GCS_BUCKET" env-default:""`
}

// LLMConfig selects the model provider used for text extraction and summaries.
type LLMConfig struct {
	Provider        string `yaml:"provider" env:"LLM_PROVIDER" env-default:"none"`
	Model           string `yaml:"model" env:"LLM_MODEL" env-default:""`
	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
}

// SlackConfig holds risk alert settings. Alerts are disabled without a token.
type SlackConfig struct {
	BotToken string `yaml:"-" env:"SLACK_BOT_TOKEN"`
	Channel  string `yaml:"channel" env:"SLACK_CHANNEL" env-default:""`
	MinBin   string `yaml:"min_bin" env:"SLACK_MIN_BIN" env-default:"high"`
}

type JobsConfig struct {
	BufferSize int `yaml:"buffer_size" env:"JOBS_BUFFER_SIZE" env-default:"100"`
	Workers    int `yaml:"workers" env:"JOBS_WORKERS" env-default:"5"`
	MaxRetries int `yaml:"max_retries" env:"JOBS_MAX_RETRIES" env-default:"3"`
	// RetentionSchedule is a 5-field cron expression. Empty disables the sweeper.
	RetentionSchedule string        `yaml:"retention_schedule" env:"JOBS_RETENTION_SCHEDULE" env-default:"*/15 * * * *"`
	RetentionMaxAge   time.Duration `yaml:"retention_max_age" env:"JOBS_RETENTION_MAX_AGE" env-default:"24h"`
}

// Enabled reports whether Slack alerts can be sent.
func (c SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.Channel != ""
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	switch c.Provider {
	case LLMGemini:
		return c.GeminiAPIKey
	case LLMAnthropic:
		return c.AnthropicAPIKey
	}
	return ""
}

// Load reads a .env file when present, then config.yaml (or CONFIG_PATH)
// with environment overrides. A missing YAML file falls back to env and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := "config.yaml"
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}
	return LoadFile(path)
}

// LoadFile reads the given YAML file with environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read env config: %w", err)
		}
	} else {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageSQLite:
	case StorageBigQuery:
		if c.Storage.ProjectID == "" {
			return fmt.Errorf("storage.project_id is required for the bigquery backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.LLM.Provider {
	case LLMNone, LLMGemini, LLMAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	if err := checkThreshold("matching.field_threshold", c.Matching.FieldThreshold); err != nil {
		return err
	}
	if err := checkThreshold("matching.type_threshold", c.Matching.TypeThreshold); err != nil {
		return err
	}

	switch c.Slack.MinBin {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("slack.min_bin must be low, medium or high, got %q", c.Slack.MinBin)
	}

	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive")
	}
	return nil
}

func checkThreshold(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s must be within [0, 100], got %v", name, v)
	}
	return nil
}
