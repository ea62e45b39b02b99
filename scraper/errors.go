package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/aluiziolira/go-tse-id/browser"
)

// ErrNotInitialized is returned by page operations called before Initialize.
var ErrNotInitialized = browser.ErrNotInitialized

// NavigationError indicates a page could not be loaded.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Errorf("navigate to %s: %w", e.URL, e.Err).Error()
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the results table never appeared.
type TimeoutError struct {
	URL      string
	Selector string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Errorf("timeout waiting for %q on %s: %w", e.Selector, e.URL, e.Err).Error()
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ExtractionError indicates the loaded document could not be read.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Errorf("extract %s: %w", e.URL, e.Err).Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// RetrievalExhaustedError is returned once every attempt has failed.
type RetrievalExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetrievalExhaustedError) Error() string {
	return fmt.Sprintf("failed to retrieve data after %d attempts: last error: %v", e.Attempts, e.Err)
}

func (e *RetrievalExhaustedError) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	if errors.Is(err, ErrNotInitialized) {
		return "not_initialized"
	}
	var launch *browser.LaunchError
	if errors.As(err, &launch) {
		return "launch"
	}
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var nav *NavigationError
	if errors.As(err, &nav) {
		if errors.Is(err, browser.ErrTimeout) {
			return "timeout"
		}
		return "navigation"
	}
	var extraction *ExtractionError
	if errors.As(err, &extraction) {
		return "extraction"
	}
	return "other"
}
