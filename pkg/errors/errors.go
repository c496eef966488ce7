package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLine   = errors.New("malformed log line")
	ErrOutputExists    = errors.New("output already exists")
	ErrUnknownStrategy = errors.New("unknown experiment type")
	ErrNotImplemented  = errors.New("autocompletion not implemented")
	ErrMissingInput    = errors.New("required input missing")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrRunLocked       = errors.New("run already registered")
	ErrInternal        = errors.New("internal error")
)

// Process exit codes returned by the CLI.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitConflict = 3
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrUnknownStrategy), errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	case errors.Is(err, ErrOutputExists), errors.Is(err, ErrRunLocked):
		return ExitConflict
	default:
		return ExitFailure
	}
}
