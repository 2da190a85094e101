package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Rafiq client
var (
	// Form errors
	ErrUnknownField   = errors.New("unknown field")
	ErrFieldType      = errors.New("wrong value type for field")
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrFormInvalid    = errors.New("form is not valid")

	// Session errors
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrStorageKeyNotFound = errors.New("storage key not found")
	ErrUnsupportedStorage = errors.New("unsupported session storage")
	ErrStorageUnavailable = errors.New("session storage unavailable")

	// Backend errors
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrProfileFetchFailed  = errors.New("profile fetch failed")
	ErrProfileUpdateFailed = errors.New("profile update failed")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
