package alarm

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("alarm record not found")
	ErrInvalidTransition = errors.New("alarm is not active")
)

// ValidationError rejects a request before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InfrastructureError wraps a persistence or locking failure. Callers may retry.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsInfrastructure(err error) bool {
	var i *InfrastructureError
	return errors.As(err, &i)
}

func infra(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InfrastructureError{Op: op, Err: err}
}
