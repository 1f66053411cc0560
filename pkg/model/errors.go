package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes evaluation and validation errors.
type ErrorKind string

const (
	ErrorInvalidModel ErrorKind = "invalid_model" // Missing type/source, unknown resolver, bad parameter
	ErrorResolution   ErrorKind = "resolution"    // Path not found, value not iterable
	ErrorPostformat   ErrorKind = "postformat"    // Transform failed without fail-silent or default
)

// Sentinel errors matched by errors.Is against *Error values of the
// corresponding kind.
var (
	ErrInvalidModel = errors.New("invalid model")
	ErrResolution   = errors.New("resolution failure")
	ErrPostformat   = errors.New("postformat failure")
)

// Error is a DN-scoped model error.
type Error struct {
	Kind    ErrorKind
	DN      DN
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s on dn %s", e.Kind, e.Message, e.DN))
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidModel:
		return e.Kind == ErrorInvalidModel
	case ErrResolution:
		return e.Kind == ErrorResolution
	case ErrPostformat:
		return e.Kind == ErrorPostformat
	}
	return false
}

// InvalidModel returns an invalid-model error for dn.
func InvalidModel(dn DN, format string, args ...any) *Error {
	return &Error{Kind: ErrorInvalidModel, DN: dn, Message: fmt.Sprintf(format, args...)}
}

// ResolutionFailure returns a resolution error for dn.
func ResolutionFailure(dn DN, cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrorResolution, DN: dn, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// PostformatFailure returns a postformat error for dn.
func PostformatFailure(dn DN, cause error, format string, args ...any) *Error {
	return &Error{Kind: ErrorPostformat, DN: dn, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ErrorList collects errors instead of failing on the first one.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates an empty list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends err.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if the list is not empty.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// ByKind returns the errors of the given kind.
func (el *ErrorList) ByKind(kind ErrorKind) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Kind == kind {
			result = append(result, err)
		}
	}
	return result
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):\n", el.Count()))
	for _, err := range el.Errors {
		sb.WriteString("  ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (el *ErrorList) Unwrap() []error {
	errs := make([]error, len(el.Errors))
	for i, err := range el.Errors {
		errs[i] = err
	}
	return errs
}

// ToError returns nil for an empty list, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}
