package runner

import "errors"

// FailureClass distinguishes errors worth retrying from ones that are not.
type FailureClass int

const (
	// FailureTransient marks errors expected to potentially succeed on
	// retry (network hiccup, rate limiting, timeout). Unclassified errors
	// are treated as transient.
	FailureTransient FailureClass = iota
	// FailurePermanent marks errors that will not be resolved by retrying
	// the same job (invalid identifier, unsupported format).
	FailurePermanent
)

func (c FailureClass) String() string {
	if c == FailurePermanent {
		return "permanent"
	}
	return "transient"
}

// classedError attaches a FailureClass to an underlying error.
type classedError struct {
	class FailureClass
	err   error
}

func (e *classedError) Error() string { return e.err.Error() }
func (e *classedError) Unwrap() error { return e.err }

// Transient wraps err as a retryable failure. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classedError{class: FailureTransient, err: err}
}

// Permanent wraps err as a non-retryable failure. Returns nil for a nil err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classedError{class: FailurePermanent, err: err}
}

// ClassOf reports the failure class of err. Errors without an explicit class
// are transient.
func ClassOf(err error) FailureClass {
	var ce *classedError
	if errors.As(err, &ce) {
		return ce.class
	}
	return FailureTransient
}
