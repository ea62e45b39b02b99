package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when a page operation runs without a
	// live browser session.
	ErrNotInitialized = errors.New("browser not initialized: call Initialize first")

	// ErrTimeout marks driver errors caused by an expired wait or navigation.
	ErrTimeout = errors.New("browser: timeout")

	// ErrClosed is returned by a Browser used after Close.
	ErrClosed = errors.New("browser: closed")
)

// LaunchError indicates the browser process could not be started.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Errorf("launch browser: %w", e.Err).Error()
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
