package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSpeciesNotFound is returned when the provider has no species for a name.
var ErrSpeciesNotFound = errors.New("species not found")

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ConfigurationError reports an invalid setting. It is raised at construction,
// before any network activity.
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// TransientNetworkError wraps the final failure of a fetch once the retry
// budget is spent.
type TransientNetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// EmptyResponseError is returned when the provider answers with a structurally
// empty JSON document.
type EmptyResponseError struct {
	URL string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("provider returned empty response for %s", e.URL)
}

// UnexpectedSchemaError is returned when a tabular response does not carry the
// expected columns.
type UnexpectedSchemaError struct {
	Expected []string
	Got      []string
	Detail   string
}

func (e *UnexpectedSchemaError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unexpected schema: %s", e.Detail)
	}
	return fmt.Sprintf("unexpected schema: expected columns [%s], got [%s]",
		strings.Join(e.Expected, ","), strings.Join(e.Got, ","))
}

// IsEmptyResponse reports whether err is or wraps an EmptyResponseError.
func IsEmptyResponse(err error) bool {
	var target *EmptyResponseError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
