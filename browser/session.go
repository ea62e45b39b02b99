package browser

import (
	"context"
	"log/slog"
	"os"
)

// Session owns at most one live Browser. It is not safe for concurrent use;
// the retriever drives it from a single goroutine.
type Session struct {
	launcher Launcher
	opts     LaunchOptions
	logger   *slog.Logger
	getenv   func(string) string

	browser Browser
}

// NewSession builds a session that launches browsers with launcher.
func NewSession(launcher Launcher, opts LaunchOptions, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		launcher: launcher,
		opts:     opts,
		logger:   logger,
		getenv:   os.Getenv,
	}
}

// Initialize launches the browser. A configured executable path wins;
// otherwise PLAYWRIGHT_CHROMIUM_EXECUTABLE_PATH is used when set.
// An already running browser is closed first.
func (s *Session) Initialize(ctx context.Context) error {
	_ = s.Close()

	opts := s.opts
	if opts.ExecutablePath == "" {
		if path := s.getenv(EnvExecutablePath); path != "" {
			opts.ExecutablePath = path
		}
	}

	b, err := s.launcher.Launch(ctx, opts)
	if err != nil {
		return &LaunchError{Err: err}
	}
	s.browser = b
	s.logger.Debug("browser launched",
		slog.Bool("headless", opts.Headless),
		slog.String("executable", opts.ExecutablePath),
	)
	return nil
}

// Close shuts the browser down. It never fails: shutdown errors are logged
// and the handle is cleared regardless.
func (s *Session) Close() error {
	if s.browser == nil {
		return nil
	}
	b := s.browser
	s.browser = nil
	if err := b.Close(); err != nil {
		s.logger.Debug("browser close failed", slog.Any("error", err))
	}
	return nil
}

// Browser returns the live browser or ErrNotInitialized.
func (s *Session) Browser() (Browser, error) {
	if s.browser == nil {
		return nil, ErrNotInitialized
	}
	return s.browser, nil
}

// Active reports whether a browser is running.
func (s *Session) Active() bool {
	return s.browser != nil
}
