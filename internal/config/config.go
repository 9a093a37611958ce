package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidVariant    = errors.New("schema_variant must be 'a' or 'b'")
	ErrInvalidLogLevel   = errors.New("log_level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat  = errors.New("log_format must be 'console' or 'json'")
	ErrInvalidTimeout    = errors.New("api_timeout_ms must be at least 1")
	ErrInvalidDelay      = errors.New("request_delay_ms must be non-negative")
	ErrMissingOutputPath = errors.New("output_path is required")
	ErrMissingBaseURL    = errors.New("api_base_url is required")
)

type Config struct {
	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`
	DBPath     string `yaml:"db_path"`

	APIBaseURL     string `yaml:"api_base_url"`
	APITimeoutMs   int    `yaml:"api_timeout_ms"`
	RequestDelayMs int    `yaml:"request_delay_ms"`
	FuzzyLookup    bool   `yaml:"fuzzy_lookup"`

	SchemaVariant string `yaml:"schema_variant"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	LedgerEnabled bool `yaml:"ledger_enabled"`
}

func Defaults() (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	return Config{
		InputPath:      "Input.csv",
		OutputPath:     "yugioh_cards.csv",
		DBPath:         filepath.Join(cwd, "data", "cardfetch.db"),
		APIBaseURL:     "https://db.ygoprodeck.com/api/v7",
		APITimeoutMs:   10000,
		RequestDelayMs: 1000,
		SchemaVariant:  "b",
		LogLevel:       "info",
		LogFormat:      "console",
		LedgerEnabled:  true,
	}, nil
}

// Load layers defaults, an optional YAML file and the environment (after
// .env), in that order.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := Defaults()
	if err != nil {
		return Config{}, err
	}

	path := getEnv("CARDFETCH_CONFIG", "cardfetch.yaml")
	if err := cfg.mergeFile(path); err != nil {
		return Config{}, err
	}

	cfg.InputPath = getEnv("CARDFETCH_INPUT", cfg.InputPath)
	cfg.OutputPath = getEnv("CARDFETCH_OUTPUT", cfg.OutputPath)
	cfg.DBPath = getEnv("CARDFETCH_DB_PATH", cfg.DBPath)
	cfg.APIBaseURL = getEnv("YGOPRO_API_BASE_URL", cfg.APIBaseURL)
	cfg.APITimeoutMs = getEnvInt("YGOPRO_TIMEOUT_MS", cfg.APITimeoutMs)
	cfg.RequestDelayMs = getEnvInt("YGOPRO_REQUEST_DELAY_MS", cfg.RequestDelayMs)
	cfg.FuzzyLookup = getEnvBool("YGOPRO_FUZZY", cfg.FuzzyLookup)
	cfg.SchemaVariant = getEnv("CARDFETCH_SCHEMA_VARIANT", cfg.SchemaVariant)
	cfg.LogLevel = getEnv("CARDFETCH_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("CARDFETCH_LOG_FORMAT", cfg.LogFormat)
	cfg.LedgerEnabled = getEnvBool("CARDFETCH_LEDGER", cfg.LedgerEnabled)

	cfg.SchemaVariant = strings.ToLower(strings.TrimSpace(cfg.SchemaVariant))
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.SchemaVariant != "a" && c.SchemaVariant != "b" {
		return fmt.Errorf("%w: got %q", ErrInvalidVariant, c.SchemaVariant)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return ErrInvalidLogLevel
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return ErrInvalidLogFormat
	}
	if c.APITimeoutMs < 1 {
		return ErrInvalidTimeout
	}
	if c.RequestDelayMs < 0 {
		return ErrInvalidDelay
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return ErrMissingOutputPath
	}
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return ErrMissingBaseURL
	}
	return nil
}

func (c Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
