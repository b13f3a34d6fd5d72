package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 5 * time.Minute
	DefaultMaxFileSize  = 100 << 20
	DefaultConcurrency  = 3
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Client.Timeout == 0 {
		c.Client.Timeout = DefaultTimeout
	}
	if c.Client.AuthHeader == "" {
		c.Client.AuthHeader = "Authorization"
	}

	if c.Retry.MaxRetries == nil {
		n := DefaultMaxRetries
		c.Retry.MaxRetries = &n
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = DefaultInitialDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = DefaultMaxDelay
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = DefaultMultiplier
	}

	if c.Polling.Interval == 0 {
		c.Polling.Interval = DefaultPollInterval
	}
	if c.Polling.MaxWait == 0 {
		c.Polling.MaxWait = DefaultMaxWait
	}

	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = DefaultMaxFileSize
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = DefaultConcurrency
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Client.BaseURL) == "" {
		errs = append(errs, errors.New("client.base_url is required"))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout must not be negative"))
	}
	if c.Retry.Retries() < 0 {
		errs = append(errs, errors.New("retry.max_retries must not be negative"))
	}
	if c.Retry.InitialDelay < 0 || c.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	if c.Retry.Multiplier <= 1 {
		errs = append(errs, fmt.Errorf("retry.multiplier must be greater than 1, got %v", c.Retry.Multiplier))
	}
	if c.Polling.Interval < 0 || c.Polling.MaxWait < 0 {
		errs = append(errs, errors.New("polling durations must not be negative"))
	}
	if c.Upload.MaxFileSize < 0 {
		errs = append(errs, errors.New("upload.max_file_size must not be negative"))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, errors.New("batch.concurrency must be at least 1"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	return errors.Join(errs...)
}
