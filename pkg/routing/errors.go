package routing

import (
	"errors"
	"fmt"
)

// ErrNoProviders can be matched with errors.Is() against selection
// failures regardless of the requested model.
var ErrNoProviders = errors.New("no providers available")

// NoProviderError is returned when the catalogue holds no providers at
// all. The gateway surfaces it as 503 to callers.
type NoProviderError struct {
	// Model is the requested model, empty when none was given.
	Model string
}

// Error implements the error interface.
func (e *NoProviderError) Error() string {
	if e.Model == "" {
		return "no providers available"
	}
	return fmt.Sprintf("no providers available for model %q", e.Model)
}

// Is implements error matching for errors.Is().
func (e *NoProviderError) Is(target error) bool {
	return target == ErrNoProviders
}
