package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for state construction and simulation runs.
var (
	// ErrNonPositiveMass indicates a body was given a zero, negative or non-finite mass.
	ErrNonPositiveMass = errors.New("dynamo: mass must be strictly positive")

	// ErrTooFewBodies indicates a state with fewer than two bodies.
	ErrTooFewBodies = errors.New("dynamo: state needs at least two bodies")

	// ErrDimensionMismatch indicates a per-body slice whose length differs from the state.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and per-body values")

	// ErrNonFinite indicates a position or velocity with NaN or Inf components.
	ErrNonFinite = errors.New("dynamo: non-finite component")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidState indicates the integration produced NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// ConfigError is a construction-time validation failure. The caller can
// recover by choosing different inputs.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(field string, value any, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}

// SimError records where a run diverged.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
