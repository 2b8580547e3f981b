package triage

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a triage error
type ErrorKind string

const (
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"
	KindInput         ErrorKind = "CLASSIFICATION_INPUT_ERROR"
	KindDataSource    ErrorKind = "DATA_SOURCE_ERROR"
)

// Error is the structured error returned by the triage core. Every kind is
// recoverable: callers keep their last good result and show the error next to it.
type Error struct {
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a detail field and returns the error for chaining
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ConfigurationError reports invalid settings such as bad custom weights
func ConfigurationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// InputError reports a malformed raw item
func InputError(itemID, field string) *Error {
	e := &Error{
		Kind:    KindInput,
		Message: fmt.Sprintf("missing required field: %s", field),
	}
	e.WithDetail("field", field)
	if itemID != "" {
		e.WithDetail("item_id", itemID)
	}
	return e
}

// DataSourceError wraps a failure reported by the data source unchanged
func DataSourceError(source string, err error) *Error {
	return &Error{
		Kind:    KindDataSource,
		Message: fmt.Sprintf("data source %s failed", source),
		Details: map[string]any{"source": source},
		Err:     err,
	}
}

// AsError returns the first *Error in err's chain
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func isKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	// errors.Join results are walked so a batch error still reports its kinds
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if isKind(e, kind) {
				return true
			}
		}
		return false
	}
	te, ok := AsError(err)
	return ok && te.Kind == kind
}

func IsConfigurationError(err error) bool { return isKind(err, KindConfiguration) }
func IsInputError(err error) bool         { return isKind(err, KindInput) }
func IsDataSourceError(err error) bool    { return isKind(err, KindDataSource) }
