package engine

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a failure detected while computing a build.
//
// Conversion errors are not recoverable locally: the date is outside the
// calendar's supported range or does not exist. They abort the operation
// and are never defaulted.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Date is the civil date being processed, if any.
	Date string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeConversionFailed indicates civil <-> lunisolar conversion failed.
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"

	// ErrCodeGroupCycle indicates a group contains itself during expansion.
	ErrCodeGroupCycle ErrorCode = "GROUP_CYCLE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Date != "" {
		msg += fmt.Sprintf(" (date=%s)", e.Date)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the cause, so errors.Is(err, calendar.ErrOutOfRange)
// works through an *Error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConversionError returns true if the error is a conversion failure.
// Uses errors.As to handle wrapped errors.
func IsConversionError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeConversionFailed
	}
	return false
}

func conversionError(civil time.Time, err error) *Error {
	return &Error{
		Code:    ErrCodeConversionFailed,
		Message: "calendar conversion failed",
		Date:    civil.Format(time.DateOnly),
		Err:     err,
	}
}
