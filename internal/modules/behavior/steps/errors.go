package steps

import (
	"errors"
	"fmt"
)

// ErrDataInsufficient marks operations that had too few rows to proceed.
var ErrDataInsufficient = errors.New("insufficient data")

// PreprocessingError marks a degenerate feature matrix.
type PreprocessingError struct {
	Reason string
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing failed: %s", e.Reason)
}

// AlgorithmError wraps a native clustering failure. The clustering boundary
// swallows it into nil results after logging; Train surfaces it as a typed
// failure reason.
type AlgorithmError struct {
	Algorithm string
	Err       error
}

func (e *AlgorithmError) Error() string {
	return fmt.Sprintf("clustering algorithm %q failed: %v", e.Algorithm, e.Err)
}

func (e *AlgorithmError) Unwrap() error { return e.Err }

// PersistenceError wraps a transactional write failure. Unlike the other
// failures it always propagates to the caller after rollback.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
