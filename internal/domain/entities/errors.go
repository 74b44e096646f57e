package entities

import (
	"errors"
	"fmt"
)

// AuthError reports a rejected sign up, sign in or token check.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewAuthError wraps err as an AuthError for op.
func NewAuthError(op string, err error) error {
	return &AuthError{Op: op, Err: err}
}

// WriteError reports a rejected create, update or delete. A missing record
// is reported as a WriteError wrapping ErrTaskNotFound.
type WriteError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *WriteError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("%s task %s: %v", e.Op, e.TaskID, e.Err)
	}
	return fmt.Sprintf("%s task: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// NewWriteError wraps err as a WriteError unless it already is one.
func NewWriteError(op, taskID string, err error) error {
	var we *WriteError
	if errors.As(err, &we) {
		return err
	}
	return &WriteError{Op: op, TaskID: taskID, Err: err}
}

// IsAuthError reports whether err is or wraps an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsWriteError reports whether err is or wraps a WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
