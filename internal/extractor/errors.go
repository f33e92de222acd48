package extractor

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError reports an input URL that cannot be fetched at all.
type ValidationError struct {
	URL    string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("invalid url: %s", e.Reason)
	}
	return fmt.Sprintf("invalid url %q: %s", e.URL, e.Reason)
}

// FetchError covers transport failures, non-success statuses and cancellation.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Canceled reports whether the fetch stopped because the caller's context ended.
func (e *FetchError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// ParseError reports a response body that could not be interpreted as HTML.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsFetch reports whether err is, or wraps, a FetchError.
func IsFetch(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

// IsParse reports whether err is, or wraps, a ParseError.
func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}
