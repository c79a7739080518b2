// Package errors defines the error taxonomy for the covidtrends pipeline.
//
// Every stage failure is wrapped in an AppError carrying one of the
// ErrorType codes below, so the driver can decide between aborting the
// run (data errors) and degrading the report (forecast errors).
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a pipeline failure.
type ErrorType string

const (
	// ErrTypeDataUnavailable covers fetch failures, malformed CSV input
	// and schema mismatches in the loader. Fatal.
	ErrTypeDataUnavailable ErrorType = "DATA_UNAVAILABLE"

	// ErrTypeMalformedDate is raised when a wide-table date header does
	// not parse with the configured layout. Fatal.
	ErrTypeMalformedDate ErrorType = "MALFORMED_DATE"

	// ErrTypeModelFit is raised when the forecaster cannot fit a model,
	// either because the series is too short for the seasonal period or
	// because it contains non-finite values. The run continues and the
	// report is generated without the forecast section.
	ErrTypeModelFit ErrorType = "MODEL_FIT_FAILURE"

	// ErrTypeConfig covers invalid configuration detected at startup.
	ErrTypeConfig ErrorType = "CONFIG"
)

// AppError is the pipeline-wide error wrapper.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new application error
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// DataUnavailable wraps a loader failure.
func DataUnavailable(message string, cause error) *AppError {
	return New(ErrTypeDataUnavailable, message, cause)
}

// MalformedDate wraps a reshape failure on a date header.
func MalformedDate(header string, cause error) *AppError {
	return New(ErrTypeMalformedDate, fmt.Sprintf("cannot parse date column %q", header), cause).
		WithContext("header", header)
}

// ModelFit wraps a forecaster failure.
func ModelFit(message string, cause error) *AppError {
	return New(ErrTypeModelFit, message, cause)
}

// IsType reports whether err (or anything it wraps) is an AppError of
// the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// TypeOf returns the error type of err, or an empty string if err is
// not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
