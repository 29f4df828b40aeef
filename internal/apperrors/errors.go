// Package apperrors defines the error kinds surfaced by the identity
// storage layer. Callers discriminate with errors.Is against the sentinel
// for a kind; messages carry the operation-specific detail.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrArgumentNull marks a required reference argument that was nil.
	ErrArgumentNull = errors.New("required argument is nil")

	// ErrInvalidArgument marks structurally wrong input, such as an empty
	// key handed to a query builder.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation marks an operation that is not valid for the
	// current state of the aggregate.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrStoreDisposed marks a call on a store that has been closed.
	ErrStoreDisposed = errors.New("store is disposed")
)

// ArgumentNull reports a missing required argument by name.
func ArgumentNull(name string) error {
	return fmt.Errorf("%w: %s", ErrArgumentNull, name)
}

// InvalidArgumentf wraps ErrInvalidArgument with a formatted detail message.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// InvalidOperationf wraps ErrInvalidOperation with a formatted detail message.
func InvalidOperationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// Disposed reports a call against an already-closed store.
func Disposed(what string) error {
	return fmt.Errorf("%w: %s", ErrStoreDisposed, what)
}
