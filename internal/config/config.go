// Package config provides configuration loading and validation for the
// pipeline and server. All values are read once at construction, not
// re-read per call.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultModel                 = "gemini-2.5-flash"
	DefaultMaxAttempts           = 3
	DefaultStageTimeout          = 60 * time.Second
	DefaultRetryBackoff          = 500 * time.Millisecond
	DefaultExtractionTemperature = 0.0
	DefaultSynthesisTemperature  = 0.5
	DefaultPort                  = 8080
)

// Config holds the pipeline and server configuration.
type Config struct {
	// APIKey is the Gemini API key. Required.
	APIKey string
	// Model is the Gemini model identifier used by both stages.
	Model string
	// ExtractionTemperature keeps the extraction stage deterministic;
	// SynthesisTemperature lets the synthesis stage explore.
	ExtractionTemperature float32
	SynthesisTemperature  float32
	// MaxAttempts bounds the retry loop of each stage.
	MaxAttempts int
	// StageTimeout bounds each individual stage attempt.
	StageTimeout time.Duration
	// RetryBackoff seeds the exponential backoff between attempts.
	RetryBackoff time.Duration
	// CacheEnabled controls the result cache.
	CacheEnabled bool
	// Port is the HTTP listen port.
	Port int
}

// FromEnv reads the configuration from environment variables, applying
// defaults for anything unset.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:                os.Getenv("GEMINI_API_KEY"),
		Model:                 envString("MODEL", DefaultModel),
		ExtractionTemperature: DefaultExtractionTemperature,
		SynthesisTemperature:  DefaultSynthesisTemperature,
		MaxAttempts:           DefaultMaxAttempts,
		StageTimeout:          DefaultStageTimeout,
		RetryBackoff:          DefaultRetryBackoff,
		CacheEnabled:          true,
		Port:                  DefaultPort,
	}

	var err error
	if cfg.ExtractionTemperature, err = envTemperature("EXTRACTION_TEMPERATURE", cfg.ExtractionTemperature); err != nil {
		return nil, err
	}
	if cfg.SynthesisTemperature, err = envTemperature("SYNTHESIS_TEMPERATURE", cfg.SynthesisTemperature); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = envInt("MAX_RETRIES", cfg.MaxAttempts); err != nil {
		return nil, err
	}
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return nil, err
	}

	if v := os.Getenv("STAGE_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STAGE_TIMEOUT_SECONDS: %v", err)
		}
		cfg.StageTimeout = time.Duration(seconds) * time.Second
	}
	if v := os.Getenv("RETRY_BACKOFF_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RETRY_BACKOFF_MS: %v", err)
		}
		cfg.RetryBackoff = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_ENABLED: %v", err)
		}
		cfg.CacheEnabled = enabled
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	if c.Model == "" {
		return fmt.Errorf("config error: model must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config error: max retries must be at least 1, got: %d", c.MaxAttempts)
	}
	if c.StageTimeout < 0 {
		return fmt.Errorf("config error: stage timeout must be non-negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("config error: retry backoff must be non-negative")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func envTemperature(key string, fallback float32) (float32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	if f < 0 || f > 2 {
		return 0, fmt.Errorf("invalid %s: temperature must be in [0, 2], got %v", key, f)
	}
	return float32(f), nil
}
