package common

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers branch with errors.Is; the typed errors below
// unwrap to one of these.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrColumnNotFound  = errors.New("column not found")
	ErrUnsupportedType = errors.New("unsupported column type")
	ErrComputation     = errors.New("computation error")
)

// ConfigurationError carries every violation found while validating a stage
// configuration, so that several problems are reported at once.
type ConfigurationError struct {
	Stage      string
	Violations []string
}

func NewConfigurationError(stage string, violations ...string) *ConfigurationError {
	return &ConfigurationError{Stage: stage, Violations: violations}
}

func (e *ConfigurationError) Error() string {
	prefix := "configuration error"
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s configuration error", e.Stage)
	}
	if len(e.Violations) == 0 {
		return prefix
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(e.Violations, "; "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ColumnNotFoundError reports a feature or target column absent from a dataset.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

func (e *ColumnNotFoundError) Unwrap() error { return ErrColumnNotFound }

// UnsupportedTypeError reports a value that cannot be coerced to a number.
type UnsupportedTypeError struct {
	Column string
	Type   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported type %s", e.Column, e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// ComputationError wraps numeric failures such as degenerate variance.
type ComputationError struct {
	Op  string
	Err error
}

func NewComputationError(op, format string, args ...any) *ComputationError {
	return &ComputationError{Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is lets errors.Is match both ErrComputation and the wrapped cause.
func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

func (e *ComputationError) Unwrap() error { return e.Err }
