package validator

import (
	"cmp"
	"fmt"
	"net"
	"slices"
)

// All returns the first non-nil error.
func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

type Validatable interface {
	Validate() error
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

func Positive[T cmp.Ordered](field T, description string) error {
	var zero T
	if field <= zero {
		return fmt.Errorf("%s must be positive, got %v", description, field)
	}
	return nil
}

// ListenAddress checks a host:port pair as accepted by net.Listen. The host
// may be empty.
func ListenAddress(field, description string) error {
	if err := NotEmpty(field, description); err != nil {
		return err
	}
	if _, _, err := net.SplitHostPort(field); err != nil {
		return fmt.Errorf("%s is not a valid listen address: %w", description, err)
	}
	return nil
}

// OneOfExtensions checks that a file name ends in one of the given
// extensions. An empty field is accepted.
func OneOfExtensions(field string, allowed []string, description string) error {
	if field == "" {
		return nil
	}
	for _, ext := range allowed {
		if len(field) > len(ext) && field[len(field)-len(ext):] == ext {
			return nil
		}
	}
	return fmt.Errorf("%s must end in one of %v, got %q", description, allowed, field)
}
