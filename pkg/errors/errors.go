// Package errors carries coded errors between the entitygraph libraries and
// their two front ends.
//
// Every failure that reaches a user is an [*Error] with a [Code]. The CLI
// prints [UserMessage]; the server maps the code to an HTTP status and puts
// it in the JSON body. Codes fall into classes:
//
//   - validation: bad data, configuration, sizes, colors or ids (INVALID_*)
//   - not found: missing datasets, files or routes
//   - backend: storage failures, timeouts and throttling
//   - internal: bugs and unsupported requests
//
// Callers test codes with [Is] and classes with [IsValidation] and
// [IsNotFound]:
//
//	if errors.Is(err, errors.ErrCodeDatasetNotFound) {
//	    return nil, false
//	}
//	return nil, errors.Wrap(errors.ErrCodeStorage, err, "load dataset %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure independent of its message.
type Code string

const (
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidData    Code = "INVALID_DATA"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidSize    Code = "INVALID_SIZE"
	ErrCodeInvalidColor   Code = "INVALID_COLOR"
	ErrCodeInvalidKey     Code = "INVALID_PROPERTY_KEY"
	ErrCodeInvalidDataset Code = "INVALID_DATASET_ID"
)

const (
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeDatasetNotFound Code = "DATASET_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
)

const (
	ErrCodeStorage     Code = "STORAGE_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

type class uint8

const (
	classOther class = iota
	classValidation
	classNotFound
)

var classes = map[Code]class{
	ErrCodeInvalidInput:    classValidation,
	ErrCodeInvalidData:     classValidation,
	ErrCodeInvalidConfig:   classValidation,
	ErrCodeInvalidFormat:   classValidation,
	ErrCodeInvalidSize:     classValidation,
	ErrCodeInvalidColor:    classValidation,
	ErrCodeInvalidKey:      classValidation,
	ErrCodeInvalidDataset:  classValidation,
	ErrCodeNotFound:        classNotFound,
	ErrCodeDatasetNotFound: classNotFound,
	ErrCodeFileNotFound:    classNotFound,
}

// Error pairs a Code with a message for users and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error formats as "CODE: message", followed by ": cause" when there is one.
func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// find returns the outermost *Error in err's chain.
func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether GetCode(err) is code.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// UserMessage is the text shown to users: the message of a coded error
// without its code and cause, or err.Error() for anything else.
func UserMessage(err error) string {
	if e, ok := find(err); ok {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err is coded with a not-found code.
func IsNotFound(err error) bool { return classes[GetCode(err)] == classNotFound }

// IsValidation reports whether err is coded with an INVALID_* code.
func IsValidation(err error) bool { return classes[GetCode(err)] == classValidation }
