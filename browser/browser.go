// Package browser owns the headless browser process used by the retriever.
//
// A Launcher starts a Browser, a Browser opens short-lived Pages, and a Page
// loads one URL and hands back its serialized document. Two drivers are
// provided: PlaywrightLauncher drives Chromium through playwright-go, and
// StaticLauncher fetches server-rendered markup over plain HTTP with colly.
// Session wraps a Launcher and holds the single live Browser.
package browser

import (
	"context"
	"time"
)

// EnvExecutablePath names the variable that may point at a system Chromium.
const EnvExecutablePath = "PLAYWRIGHT_CHROMIUM_EXECUTABLE_PATH"

// DefaultArgs are passed to Chromium so it starts inside containers and
// other restricted environments.
var DefaultArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--disable-web-security",
	"--disable-features=VizDisplayCompositor",
	"--no-zygote",
}

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless       bool
	Args           []string
	ExecutablePath string // empty means the bundled binary
	UserAgent      string
	CacheSize      int // pages kept by the static driver
}

// DefaultLaunchOptions returns headless options with DefaultArgs.
func DefaultLaunchOptions() LaunchOptions {
	args := make([]string, len(DefaultArgs))
	copy(args, DefaultArgs)
	return LaunchOptions{
		Headless: true,
		Args:     args,
	}
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is one live browser connection.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. Callers must Close it.
type Page interface {
	// Goto navigates to url and returns once the DOM content is loaded.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	// WaitForSelector blocks until selector matches at least one element.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// Content returns the serialized document.
	Content(ctx context.Context) (string, error)
	Close() error
}
