// Package config provides the configuration schema and loader for the
// synapse-ai client: default provider selection, API keys, and call
// defaults. A Config value is built once at startup (from YAML, the
// environment, or both) and handed explicitly to the client constructor;
// mutating it after the client is built is undefined.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity for the client.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l onto the corresponding slog level, defaulting to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Provider names with built-in adapters.
const (
	ProviderOpenAI       = "openai"
	ProviderGoogleGemini = "google_gemini"
	ProviderAnthropic    = "anthropic"
	ProviderOllama       = "ollama"
	ProviderDeepSeek     = "deepseek"
	ProviderMistral      = "mistral"
	ProviderGroq         = "groq"
)

// KnownProviders lists the provider names with built-in adapters. Used by
// [Validate] to warn about likely typos; unknown names are not rejected,
// custom registrations keep working.
var KnownProviders = []string{
	ProviderOpenAI,
	ProviderGoogleGemini,
	ProviderAnthropic,
	ProviderOllama,
	ProviderDeepSeek,
	ProviderMistral,
	ProviderGroq,
}

const (
	// DefaultProvider handles calls that name no provider.
	DefaultProvider = ProviderOpenAI

	// DefaultTimeoutSeconds bounds each vendor round trip.
	DefaultTimeoutSeconds = 60

	// DefaultLogLevel is used when none is configured.
	DefaultLogLevel = LogInfo
)

// Config is the root configuration for the client. It is typically built by
// [Default], [Load], or [LoadFromReader].
type Config struct {
	// Provider is the default provider for calls without an explicit override.
	Provider string `yaml:"provider"`

	// OpenAIAPIKey authenticates the OpenAI adapter.
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// GoogleGeminiAPIKey authenticates the Gemini adapter.
	GoogleGeminiAPIKey string `yaml:"google_gemini_api_key"`

	// ProviderAPIKeys holds keys for the long-tail providers, keyed by
	// provider name (e.g., "anthropic", "mistral").
	ProviderAPIKeys map[string]string `yaml:"provider_api_keys"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// DefaultTimeout is the vendor round-trip bound, in seconds.
	DefaultTimeout int `yaml:"default_timeout"`

	// OpenAIBaseURL overrides the OpenAI endpoint (proxies, tests).
	OpenAIBaseURL string `yaml:"openai_base_url"`

	// GeminiBaseURL overrides the Gemini endpoint (proxies, tests).
	GeminiBaseURL string `yaml:"gemini_base_url"`
}

// Timeout returns the configured round-trip bound as a duration.
func (c *Config) Timeout() time.Duration {
	if c.DefaultTimeout <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.DefaultTimeout) * time.Second
}

// Default returns a Config with defaults applied and API keys sourced from
// the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg
}

// applyDefaults fills zero-valued fields with the documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = DefaultTimeoutSeconds
	}
}
