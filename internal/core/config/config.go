package config

import "time"

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Client  ClientConfig  `yaml:"client"`
	Retry   RetryConfig   `yaml:"retry"`
	Polling PollingConfig `yaml:"polling"`
	Upload  UploadConfig  `yaml:"upload"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ClientConfig holds the connection to the OCR API.
type ClientConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	AuthHeader string        `yaml:"auth_header"` // default Authorization
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
}

// RetryConfig controls backoff for every API call.
type RetryConfig struct {
	MaxRetries   *int          `yaml:"max_retries"` // nil = default, 0 disables retries
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
}

// Retries returns the configured retry count, or the default when unset.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *r.MaxRetries
}

// PollingConfig controls job status polling.
type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxWait  time.Duration `yaml:"max_wait"`
}

// UploadConfig bounds local files and part uploads.
type UploadConfig struct {
	MaxFileSize       int64    `yaml:"max_file_size"`      // bytes
	AllowedExtensions []string `yaml:"allowed_extensions"` // empty = every supported type
	PartRetry         bool     `yaml:"part_retry"`
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the metrics server settings.
type MetricsConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}
