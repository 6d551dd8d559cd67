package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates configuration from a YAML file at path.
// Defaults are applied before validation and API keys missing from the file
// are sourced from the environment.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML configuration from r. Unknown fields are
// rejected so typos surface as errors rather than silently ignored settings.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency. All problems are
// reported at once via errors.Join. An unrecognised default provider is a
// warning only, since callers may register custom providers under that name.
func (c *Config) Validate() error {
	var errs []error

	if c.Provider == "" {
		errs = append(errs, errors.New("provider must not be empty"))
	} else if !slices.Contains(KnownProviders, c.Provider) {
		slog.Warn("default provider has no built-in adapter; a custom registration is required",
			"provider", c.Provider)
	}
	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("invalid log_level %q (want debug, info, warn, or error)", c.LogLevel))
	}
	if c.DefaultTimeout < 0 {
		errs = append(errs, fmt.Errorf("default_timeout must not be negative, got %d", c.DefaultTimeout))
	}

	return errors.Join(errs...)
}

// applyEnv fills API keys not set in the file from the environment.
// OPENAI_API_KEY and GOOGLE_GEMINI_API_KEY feed the first-class adapters
// (GEMINI_API_KEY is accepted as a fallback spelling); every other known
// provider is sourced from <NAME>_API_KEY into ProviderAPIKeys.
func applyEnv(cfg *Config) {
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.GoogleGeminiAPIKey == "" {
		cfg.GoogleGeminiAPIKey = os.Getenv("GOOGLE_GEMINI_API_KEY")
		if cfg.GoogleGeminiAPIKey == "" {
			cfg.GoogleGeminiAPIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	for _, name := range KnownProviders {
		if name == ProviderOpenAI || name == ProviderGoogleGemini {
			continue
		}
		if _, ok := cfg.ProviderAPIKeys[name]; ok {
			continue
		}
		key := os.Getenv(strings.ToUpper(name) + "_API_KEY")
		if key == "" {
			continue
		}
		if cfg.ProviderAPIKeys == nil {
			cfg.ProviderAPIKeys = make(map[string]string)
		}
		cfg.ProviderAPIKeys[name] = key
	}
}
