package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/artyomka101/appforphone/internal/logger"
)

var (
	// ErrNotFound is returned when a habit, notification or profile does not exist
	ErrNotFound = stderrors.New("not found")

	// ErrValidation marks input rejected at the edit boundary
	ErrValidation = stderrors.New("invalid input")

	// ErrStore matches every StoreError via errors.Is
	ErrStore = stderrors.New("store unavailable")
)

// StoreError wraps a failure of the persistence layer with the operation that hit it
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Store wraps err as a StoreError for op. Not-found errors pass through untouched
// so callers can keep matching them with errors.Is.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, ErrNotFound) {
		return err
	}
	var se *StoreError
	if stderrors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// NotFoundf returns an ErrNotFound wrapped with context
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Invalidf returns an ErrValidation wrapped with context
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is, or wraps, ErrValidation
func IsValidation(err error) bool {
	return stderrors.Is(err, ErrValidation)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
