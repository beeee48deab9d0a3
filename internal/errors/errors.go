// Package errors provides unified error handling with structured error codes.
// Codes are grouped into the three classes the pipeline cares about: items that
// failed and are skipped, items dropped on purpose, and startup failures.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code identifies the kind of failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeUnavailable
	CodeTimeout
	CodeCancelled
	CodeAudioDeviceUnavailable
	CodeAudioReadFailed
	CodeRecognitionUnrecognized
	CodeRecognitionTimeout
	CodeRecognitionFailed
	CodeTranslationFailed
	CodeOutputFailed
	CodeControlBindFailed
	CodeConfigInvalid
	CodeConfigMissing
)

var codeNames = map[Code]string{
	CodeUnknown:                 "UNKNOWN",
	CodeInternal:                "INTERNAL",
	CodeInvalidArgument:         "INVALID_ARGUMENT",
	CodeUnavailable:             "UNAVAILABLE",
	CodeTimeout:                 "TIMEOUT",
	CodeCancelled:               "CANCELLED",
	CodeAudioDeviceUnavailable:  "AUDIO_DEVICE_UNAVAILABLE",
	CodeAudioReadFailed:         "AUDIO_READ_FAILED",
	CodeRecognitionUnrecognized: "RECOGNITION_UNRECOGNIZED",
	CodeRecognitionTimeout:      "RECOGNITION_TIMEOUT",
	CodeRecognitionFailed:       "RECOGNITION_FAILED",
	CodeTranslationFailed:       "TRANSLATION_FAILED",
	CodeOutputFailed:            "OUTPUT_FAILED",
	CodeControlBindFailed:       "CONTROL_BIND_FAILED",
	CodeConfigInvalid:           "CONFIG_INVALID",
	CodeConfigMissing:           "CONFIG_MISSING",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// Class groups codes by how a loop reacts to them.
type Class int

const (
	// Recoverable errors are logged; the current item is discarded and the loop continues.
	Recoverable Class = iota
	// Dropped marks items discarded on purpose; logged at debug level.
	Dropped
	// Fatal errors stop the affected loop from starting.
	Fatal
)

func (c Class) String() string {
	return [...]string{"recoverable", "dropped", "fatal"}[c]
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error chain carries a specific error code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// ClassOf maps err to the way a loop reacts to it.
func ClassOf(err error) Class {
	switch CodeOf(err) {
	case CodeAudioDeviceUnavailable, CodeControlBindFailed, CodeConfigMissing:
		return Fatal
	case CodeRecognitionUnrecognized, CodeCancelled:
		return Dropped
	default:
		return Recoverable
	}
}
