package custom_errors

import (
	"errors"
	"fmt"
)

// CollaboratorError wraps a failed call to the messaging gateway. The durable
// record involved in the operation is kept so a retry or manual intervention
// can recover it.
type CollaboratorError struct {
	Op  string
	Err error
}

func (c *CollaboratorError) Error() string {
	return fmt.Sprintf("gateway call %s failed: %v", c.Op, c.Err)
}

func (c *CollaboratorError) Unwrap() error {
	return c.Err
}

func NewCollaborator(op string, err error) *CollaboratorError {
	return &CollaboratorError{Op: op, Err: err}
}

func IsCollaborator(err error) bool {
	var c *CollaboratorError
	return errors.As(err, &c)
}
