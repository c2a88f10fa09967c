// Package errdefs defines the error categories shared by every package of the module.
//
// Errors produced anywhere in the module wrap exactly one of the sentinels below,
// so callers classify failures with errors.Is regardless of the concrete error type.
package errdefs

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidArgument is returned when a comparison or an operation is malformed:
	// an empty key, a target value of the wrong type or an option that does not fit
	// the operation kind.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIllegalState is returned when a transaction is mutated or committed after it
	// has already been committed.
	ErrIllegalState = errors.New("illegal state")
	// ErrTransactionFailed is returned when the executor could not complete the round trip.
	ErrTransactionFailed = errors.New("transaction failed")
)

// InvalidArgument returns an error that wraps ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// IllegalState returns an error that wraps ErrIllegalState with a formatted message.
func IllegalState(format string, args ...any) error {
	return errors.Wrapf(ErrIllegalState, format, args...)
}

// TransactionFailed marks err as a failed round trip. It returns nil for a nil error
// and leaves errors that are already marked untouched.
func TransactionFailed(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTransactionFailed):
		return err
	default:
		return errors.Mark(errors.Wrap(err, ErrTransactionFailed.Error()), ErrTransactionFailed)
	}
}

// IsInvalidArgument reports whether err is an ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsIllegalState reports whether err is an ErrIllegalState.
func IsIllegalState(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsTransactionFailed reports whether err is an ErrTransactionFailed.
func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
