// internal/game/errors.go
//
// Error taxonomy for the rules engine.
//
//   - ValidationError: malformed input (bad clue word, out-of-range number).
//     Rejected before any transaction attempt; maps to HTTP 400.
//   - PreconditionError: the operation is well-formed but the document is not
//     in a state that permits it (wrong phase, wrong turn, card already
//     revealed, offer already resolved). The transaction aborts with no side
//     effect; maps to HTTP 409.
//
// Store-level conflict/retry errors live in internal/store.

package game

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any state is touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func errValidation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PreconditionError aborts an operation whose preconditions no longer hold.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

func errPrecondition(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
