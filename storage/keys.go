package storage

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidKey is returned for keys that cannot be mapped onto every backend.
var ErrInvalidKey = errors.New("invalid storage key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,200}$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
