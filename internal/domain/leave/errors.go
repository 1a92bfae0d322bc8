package leave

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no request exists for the given id.
	ErrNotFound = errors.New("leave request not found")

	// ErrAlreadyDecided is returned when approving or rejecting a request
	// that is no longer Pending. The record is left untouched.
	ErrAlreadyDecided = errors.New("leave request already decided")

	// ErrDuplicateRequest is returned when a submission overlaps a pending
	// request of the same student with the same reason.
	ErrDuplicateRequest = errors.New("duplicate pending leave request")
)

// ValidationError reports the rules a candidate violated. Violations are
// stable rule codes, not display strings.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid leave request: " + strings.Join(e.Violations, ", ")
}

// StoreError wraps a persistence failure so callers can distinguish it from
// domain outcomes.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// EncodingError reports a gate-pass rendering failure during approval. The
// record stays Pending when this is returned.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("gate pass encoding: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
