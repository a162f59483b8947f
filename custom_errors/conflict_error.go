package custom_errors

import (
	"errors"
	"fmt"
)

// ConflictError signals that an active record already exists for the key,
// e.g. a second mute for the same subject or a second session per channel.
// The caller's state is left untouched.
type ConflictError struct {
	Resource string
	Key      string
}

func (c *ConflictError) Error() string {
	return fmt.Sprintf("%s already active for '%s'", c.Resource, c.Key)
}

func NewConflict(resource, key string) *ConflictError {
	return &ConflictError{Resource: resource, Key: key}
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
