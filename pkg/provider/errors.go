package provider

import (
	"errors"
	"fmt"
)

// ErrAPIKeyMissing is returned by adapter constructors called without a
// usable API key. Construction fails before any network activity.
var ErrAPIKeyMissing = errors.New("provider: api key must not be empty")

// ErrNotImplemented is the failure cause for operations a provider does not
// implement, such as GenerateImage.
var ErrNotImplemented = errors.New("provider: operation not implemented")

// ConfigError reports that a provider could not be resolved or constructed:
// an unsupported provider name, a missing credential, or a failed vendor
// client initialization. The message always names the provider so callers
// can tell which configuration entry is at fault.
type ConfigError struct {
	// Provider is the provider name that failed to resolve.
	Provider string

	// Err is the underlying cause.
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q: configuration error: %v", e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
