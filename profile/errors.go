package profile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigCorrupt      = errors.New("config corrupt")
	ErrNoProfileSpecified = errors.New("no profile specified")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error describes a failure to turn the config file into a usable profile.
// It matches its Kind with errors.Is.
type Error struct {
	Kind      error
	Key       string
	Field     string
	Path      string
	Available []string
	Cause     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrConfigCorrupt:
		if e.Cause != nil {
			return fmt.Sprintf("failed to load S3 config from %s: %v", e.Path, e.Cause)
		}

		return fmt.Sprintf("failed to load S3 config from %s", e.Path)
	case ErrNoProfileSpecified:
		return fmt.Sprintf("no profile specified and no default_profile set in %s. Available: %s", e.Path, formatKeys(e.Available))
	case ErrProfileNotFound:
		return fmt.Sprintf("profile '%s' not found in config. Available: %s", e.Key, formatKeys(e.Available))
	case ErrInvalidCredentials:
		return fmt.Sprintf("profile '%s' has invalid %s. Please update %s", e.Key, e.Field, e.Path)
	}

	return fmt.Sprintf("%v: %s", e.Kind, e.Key)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Cause }

func formatKeys(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}

	return "[" + strings.Join(quoted, ", ") + "]"
}
