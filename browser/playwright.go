package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher starts Chromium through the playwright driver.
type PlaywrightLauncher struct {
	// RunOptions are passed to playwright.Run. Nil discards driver output.
	RunOptions *playwright.RunOptions
}

// Install downloads the playwright driver and Chromium.
func Install(stdout, stderr io.Writer) error {
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Stdout:   stdout,
		Stderr:   stderr,
	}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	return nil
}

// Launch starts the driver and a Chromium instance.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runOpts := l.RunOptions
	if runOpts == nil {
		runOpts = &playwright.RunOptions{
			Stdout: io.Discard,
			Stderr: io.Discard,
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	return &playwrightBrowser{pw: pw, browser: b, userAgent: opts.UserAgent}, nil
}

type playwrightBrowser struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	userAgent string
}

func (b *playwrightBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pageOpts := playwright.BrowserNewPageOptions{}
	if b.userAgent != "" {
		pageOpts.UserAgent = playwright.String(b.userAgent)
	}
	page, err := b.browser.NewPage(pageOpts)
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (b *playwrightBrowser) Close() error {
	return errors.Join(b.browser.Close(), b.pw.Stop())
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(milliseconds(timeout)),
	})
	return markTimeout(err)
}

func (p *playwrightPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	return markTimeout(err)
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func markTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
