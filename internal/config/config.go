package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/geoscribe/report-backend/internal/pkg/retry"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Assistant channel configuration
	AssistantCfg AssistantConnectorConfig `envPrefix:"ASSISTANT_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Attachment upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Rate limiting for the public API
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Report structure (loaded from JSON file, falls back to built-in)
	TaxonomyPath string `env:"TAXONOMY_PATH"`
	Taxonomy     *taxonomy.Taxonomy

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Environment (set from flag, not from env var)
	Environment string
}

// AssistantConnectorConfig configures the remote assistant-channel client
// and the run lifecycle settings built on top of it.
type AssistantConnectorConfig struct {
	HTTPClientConfig
	AssistantID string `env:"ID,notEmpty"`

	ThreadsEndpoint  string `env:"THREADS_ENDPOINT" envDefault:"/v1/threads"`
	MessagesEndpoint string `env:"MESSAGES_ENDPOINT" envDefault:"/v1/threads/%s/messages"`
	RunsEndpoint     string `env:"RUNS_ENDPOINT" envDefault:"/v1/threads/%s/runs"`
	RunEndpoint      string `env:"RUN_ENDPOINT" envDefault:"/v1/threads/%s/runs/%s"`
	CancelEndpoint   string `env:"CANCEL_ENDPOINT" envDefault:"/v1/threads/%s/runs/%s/cancel"`
	RunsListEndpoint string `env:"RUNS_LIST_ENDPOINT" envDefault:"/v1/runs/outstanding"`

	// PollInterval bounds perceived latency while a run is in flight.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"250ms"`
	// RunMaxAge is the threshold after which the cleanup sweep cancels
	// an outstanding run.
	RunMaxAge time.Duration `env:"RUN_MAX_AGE" envDefault:"5m"`

	Retry pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

// FileUploadConfig holds attachment upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"`
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"26214400"`
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"64"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`
}

// RateLimitConfig holds per-client API rate limits
type RateLimitConfig struct {
	RequestsPerMinute int           `env:"REQUESTS_PER_MINUTE" envDefault:"60"`
	Window            time.Duration `env:"WINDOW" envDefault:"1m"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := loadTaxonomy(cfg); err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if cfg.AssistantCfg.PollInterval < 50*time.Millisecond || cfg.AssistantCfg.PollInterval >= time.Second {
		errors = append(errors, fmt.Sprintf("ASSISTANT_POLL_INTERVAL must be sub-second and at least 50ms, got %s", cfg.AssistantCfg.PollInterval))
	}

	if cfg.AssistantCfg.RunMaxAge < time.Minute {
		errors = append(errors, fmt.Sprintf("ASSISTANT_RUN_MAX_AGE must be at least 1m, got %s", cfg.AssistantCfg.RunMaxAge))
	}

	if cfg.RateLimitCfg.RequestsPerMinute < 1 || cfg.RateLimitCfg.RequestsPerMinute > 600 {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_REQUESTS_PER_MINUTE must be between 1 and 600, got %d", cfg.RateLimitCfg.RequestsPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", errors[0])
	}

	return nil
}

func loadTaxonomy(cfg *Config) error {
	path := cfg.TaxonomyPath
	if path == "" {
		path = filepath.Join("internal", "config", "document_structure.json")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Warning: taxonomy file not found at %s, using built-in report structure\n", path)
		cfg.Taxonomy = taxonomy.Default()
		return nil
	}

	tax, err := taxonomy.Load(path)
	if err != nil {
		return err
	}

	cfg.Taxonomy = tax
	fmt.Printf("Loaded taxonomy for %d topics from %s\n", len(tax.Topics()), path)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
