package companion

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAnimation rejects a profile that has neither a full four-direction
	// animation set nor a uniform fallback.
	ErrNoAnimation = errors.New("no full directional or uniform animation set")
	// ErrInvalidSound marks a sound trigger whose id the sound bank does not know.
	ErrInvalidSound = errors.New("sound not found in sound bank")
	// ErrDuplicateTrigger marks a second trigger for an already configured kind.
	ErrDuplicateTrigger = errors.New("duplicate sound trigger")
)

// LoadError reports a malformed profile. A profile that fails with a
// LoadError is excluded from the registry; loading of others continues.
type LoadError struct {
	Key ProfileKey
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load companion %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// BindingError reports a spawn request for a profile that is not registered.
type BindingError struct {
	Key ProfileKey
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("spawn companion %s: unknown profile", e.Key)
}
