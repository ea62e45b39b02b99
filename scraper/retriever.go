// Package scraper retrieves the BSI list of certified TSEs page by page
// through a browser session, with whole-run retries.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-tse-id/browser"
	"github.com/aluiziolira/go-tse-id/config"
	"github.com/aluiziolira/go-tse-id/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans emitted by this package.
const TracerName = "github.com/aluiziolira/go-tse-id/scraper"

// Retriever drives one browser session through the result pages. It is not
// safe for concurrent use.
type Retriever struct {
	cfg     *config.Config
	session *browser.Session
	Metrics *Metrics

	logger *slog.Logger
	tracer trace.Tracer
	sleep  func(time.Duration)
	report models.Report
}

// New builds a retriever for cfg. A nil launcher selects the driver named by
// cfg.Driver. Spans go to the global tracer provider as of this call.
func New(cfg *config.Config, launcher browser.Launcher) (*Retriever, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if launcher == nil {
		launcher = launcherFor(cfg.Driver)
	}

	opts := browser.DefaultLaunchOptions()
	opts.Headless = cfg.Headless
	opts.ExecutablePath = cfg.ExecutablePath
	opts.UserAgent = cfg.UserAgent
	opts.CacheSize = cfg.CacheSize

	logger := slog.Default()
	return &Retriever{
		cfg:     cfg,
		session: browser.NewSession(launcher, opts, logger),
		Metrics: NewMetrics(),
		logger:  logger,
		tracer:  otel.Tracer(TracerName),
		sleep:   time.Sleep,
	}, nil
}

func launcherFor(driver string) browser.Launcher {
	if driver == config.DriverHTTP {
		return &browser.StaticLauncher{}
	}
	return &browser.PlaywrightLauncher{}
}

// Initialize launches the browser session.
func (r *Retriever) Initialize(ctx context.Context) error {
	return r.session.Initialize(ctx)
}

// Close releases the browser session. It is safe to call repeatedly.
func (r *Retriever) Close() error {
	return r.session.Close()
}

// Report returns diagnostics of the most recent WithRetry run.
func (r *Retriever) Report() models.Report {
	out := r.report
	out.FailedPages = append([]int(nil), r.report.FailedPages...)
	out.ErrorsByType = make(map[string]int, len(r.report.ErrorsByType))
	for k, v := range r.report.ErrorsByType {
		out.ErrorsByType[k] = v
	}
	return out
}

func (r *Retriever) recordError(err error) string {
	label := errorTypeLabel(err)
	if r.report.ErrorsByType == nil {
		r.report.ErrorsByType = make(map[string]int)
	}
	r.report.ErrorsByType[label]++
	r.Metrics.IncError(label)
	return label
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Retrieve fetches the full collection with default settings overridden by
// opts, retrying the whole run up to the default attempt count.
func Retrieve(ctx context.Context, opts *config.Options) (models.Collection, error) {
	return retrieve(ctx, opts, nil)
}

func retrieve(ctx context.Context, opts *config.Options, launcher browser.Launcher) (models.Collection, error) {
	cfg := config.DefaultConfig()
	if err := cfg.Apply(opts); err != nil {
		return nil, err
	}
	r, err := New(cfg, launcher)
	if err != nil {
		return nil, err
	}
	return r.WithRetry(ctx, cfg.MaxAttempts)
}
