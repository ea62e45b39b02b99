package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-tse-id/dom"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the static driver's page cache when none is set.
const DefaultCacheSize = 32

// StaticLauncher serves pages from plain HTTP responses without running
// scripts. It suits server-rendered lists and offline fixtures.
type StaticLauncher struct {
	// Transport replaces the default HTTP transport when set.
	Transport http.RoundTripper
}

// Launch builds a collector and its page cache.
func (l *StaticLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := colly.NewCollector(colly.AllowURLRevisit())
	if opts.UserAgent != "" {
		collector.UserAgent = opts.UserAgent
	}
	collector.IgnoreRobotsTxt = true

	transport := l.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	collector.WithTransport(transport)

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}

	return &staticBrowser{collector: collector, cache: cache}, nil
}

type staticBrowser struct {
	collector *colly.Collector
	cache     *lru.Cache[string, string]
	closed    bool
}

func (b *staticBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.closed {
		return nil, ErrClosed
	}
	return &staticPage{browser: b}, nil
}

func (b *staticBrowser) Close() error {
	b.cache.Purge()
	b.closed = true
	return nil
}

type staticPage struct {
	browser *staticBrowser
	html    string
	loaded  bool
}

func (p *staticPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if body, ok := p.browser.cache.Get(url); ok {
		p.html, p.loaded = body, true
		return nil
	}

	c := p.browser.collector.Clone()
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	if err := c.Visit(url); err != nil {
		return markStaticTimeout(fmt.Errorf("get %s: %w", url, err))
	}
	if body == nil {
		return fmt.Errorf("get %s: empty response", url)
	}

	p.html, p.loaded = string(body), true
	p.browser.cache.Add(url, p.html)
	return nil
}

// WaitForSelector checks the loaded markup once. Nothing renders later on a
// static page, so a miss is reported as a timeout immediately.
func (p *staticPage) WaitForSelector(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.loaded {
		return fmt.Errorf("wait for %q: no page loaded", selector)
	}
	doc, err := dom.Parse(p.html)
	if err != nil || !doc.Has(selector) {
		return fmt.Errorf("%w: no element matches %q", ErrTimeout, selector)
	}
	return nil
}

func (p *staticPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.loaded {
		return "", errors.New("content: no page loaded")
	}
	return p.html, nil
}

func (p *staticPage) Close() error {
	p.html, p.loaded = "", false
	return nil
}

func markStaticTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
