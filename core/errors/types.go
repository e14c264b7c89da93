// ABOUTME: Custom error types for the aggregation engine
// ABOUTME: Provides the enrichment error taxonomy and classification helpers

package errors

import (
	"errors"
	"fmt"
)

// ValidationError represents bad user input at write time,
// e.g. an unresolvable YouTube handle. Nothing is persisted.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// SkipArticleError signals a 4xx response while fetching article content
// or a subsidiary resource. The article is dropped from the run; the feed
// continues. Carries the status code for observability.
type SkipArticleError struct {
	URL        string
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *SkipArticleError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("skip article %s: status %d %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("skip article %s: %s", e.URL, e.Message)
}

// TransientError represents a network failure or 5xx response.
// Retried with exponential backoff up to 3 attempts per step.
type TransientError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient error for %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transient error for %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause
func (e *TransientError) Unwrap() error { return e.Err }

// TimeoutError represents a timed-out or aborted request.
// Treated as transient with bounded retries.
type TimeoutError struct {
	URL string
	Err error
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout fetching %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause
func (e *TimeoutError) Unwrap() error { return e.Err }

// ParseError represents a syntactically broken source document.
// The item is abandoned; the run continues.
type ParseError struct {
	URL string
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause
func (e *ParseError) Unwrap() error { return e.Err }

// FatalError represents an unrecoverable condition such as a database
// failure or a misconfigured plugin. The run aborts; the feed stays enabled.
type FatalError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("fatal: %s", e.Message)
}

// Unwrap exposes the underlying cause
func (e *FatalError) Unwrap() error { return e.Err }

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsSkipArticle checks if an error is a SkipArticleError
func IsSkipArticle(err error) bool {
	var s *SkipArticleError
	return errors.As(err, &s)
}

// AsSkipArticle returns the SkipArticleError when err carries one
func AsSkipArticle(err error) (*SkipArticleError, bool) {
	var s *SkipArticleError
	ok := errors.As(err, &s)
	return s, ok
}

// IsTransient checks if an error is retryable (transient or timeout)
func IsTransient(err error) bool {
	var tr *TransientError
	var to *TimeoutError
	return errors.As(err, &tr) || errors.As(err, &to)
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var to *TimeoutError
	return errors.As(err, &to)
}

// IsParse checks if an error is a ParseError
func IsParse(err error) bool {
	var p *ParseError
	return errors.As(err, &p)
}

// IsFatal checks if an error is a FatalError
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
