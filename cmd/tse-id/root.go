package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aluiziolira/go-tse-id/browser"
	"github.com/aluiziolira/go-tse-id/config"
	"github.com/aluiziolira/go-tse-id/pipeline"
	"github.com/aluiziolira/go-tse-id/scraper"
	"github.com/aluiziolira/go-tse-id/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type options struct {
	output         string
	pretty         bool
	format         string
	url            string
	timeout        time.Duration
	pages          int
	attempts       int
	driver         string
	executablePath string
	configPath     string
	metricsAddr    string
	traceExporter  string
	otlpEndpoint   string
	verbose        bool
}

// newRootCmd builds the tse-id command. A nil launcher lets the configured
// driver decide.
func newRootCmd(launcher browser.Launcher) *cobra.Command {
	return newRootCmdWithOptions(&options{}, launcher)
}

func newRootCmdWithOptions(opts *options, launcher browser.Launcher) *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "tse-id",
		Short: "Retrieves a list of TSE from BSI",
		Example: `  tse-id                     # Output to stdout
  tse-id -p                  # Pretty print to stdout
  tse-id -o data.json        # Save to file
  tse-id -o data.json -p     # Save pretty printed JSON to file`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, launcher)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout)")
	flags.BoolVarP(&opts.pretty, "pretty", "p", false, "Pretty print JSON output")
	flags.StringVar(&opts.format, "format", defaults.OutputFormat, "Output format: json, csv, or dual")
	flags.StringVar(&opts.url, "url", defaults.URL, "Result page URL; the page number is appended")
	flags.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Timeout for each navigation and wait")
	flags.IntVar(&opts.pages, "pages", defaults.Pages, "Number of result pages (0 detects it)")
	flags.IntVar(&opts.attempts, "attempts", defaults.MaxAttempts, "Maximum retrieval attempts")
	flags.StringVar(&opts.driver, "driver", defaults.Driver, "Page driver: playwright or http")
	flags.StringVar(&opts.executablePath, "executable-path", "", "Chromium executable to launch")
	flags.StringVar(&opts.configPath, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/"+config.DefaultConfigFile+")")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.StringVar(&opts.traceExporter, "trace-exporter", "", "Export traces: stdout (to stderr) or otlp")
	flags.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector URL (default: OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newInstallCmd())
	return cmd
}

func run(cmd *cobra.Command, opts *options, launcher browser.Launcher) error {
	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, level := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	tel, err := telemetry.Setup(cmd.Context(), "tse-id", telemetry.Config{
		Exporter: cfg.TraceExporter,
		Endpoint: cfg.OTLPEndpoint,
		Writer:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			slog.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	r, err := scraper.New(cfg, launcher)
	if err != nil {
		return err
	}

	stopMetrics := serveMetrics(cfg.MetricsAddr, r.Metrics)
	defer stopMetrics()

	slog.Info("Starting TSE data retrieval",
		slog.String("url", cfg.URL),
		slog.String("driver", cfg.Driver),
		slog.Int("max_attempts", cfg.MaxAttempts),
	)

	start := time.Now()
	records, err := r.WithRetry(cmd.Context(), cfg.MaxAttempts)
	if err != nil {
		return err
	}

	writer, err := createWriter(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	p := pipeline.NewPipeline(writer)
	written, err := p.Process(records)
	if err != nil {
		_ = p.Close()
		return err
	}
	if err := writer.Validate(); err != nil {
		_ = p.Close()
		return fmt.Errorf("output validation failed: %w", err)
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if cfg.OutputFile != "" {
		path, err := filepath.Abs(cfg.OutputFile)
		if err != nil {
			path = cfg.OutputFile
		}
		slog.Info("Data saved", slog.String("path", path), slog.Int("total_entries", len(written)))
		printSummary(cmd.ErrOrStderr(), r.Report(), time.Since(start), path, p.GetMetrics())
	}
	return nil
}

// buildConfig layers defaults, the config file, TSE_* variables and
// explicitly set flags, in that order.
func buildConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	path := config.FindConfigFile(opts.configPath)
	if opts.configPath != "" && path == "" {
		return nil, fmt.Errorf("%s: %w", opts.configPath, config.ErrConfigNotFound)
	}
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.OutputFile = opts.output
	}
	if changed("pretty") {
		cfg.Pretty = opts.pretty
	}
	if changed("format") {
		cfg.OutputFormat = opts.format
	}
	if changed("url") {
		cfg.URL = opts.url
	}
	if changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if changed("pages") {
		cfg.Pages = opts.pages
	}
	if changed("attempts") {
		cfg.MaxAttempts = opts.attempts
	}
	if changed("driver") {
		cfg.Driver = opts.driver
	}
	if changed("executable-path") {
		cfg.ExecutablePath = opts.executablePath
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if changed("trace-exporter") {
		cfg.TraceExporter = opts.traceExporter
	}
	if changed("otlp-endpoint") {
		cfg.OTLPEndpoint = opts.otlpEndpoint
	}
	if changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("TSE_URL"); ok {
		cfg.URL = value
	}
	if value, ok, err := config.EnvInt("TSE_PAGES"); err != nil {
		return err
	} else if ok {
		cfg.Pages = value
	}
	if value, ok, err := config.EnvDuration("TSE_TIMEOUT"); err != nil {
		return err
	} else if ok {
		cfg.Timeout = value
	}
	if value, ok := config.EnvString("TSE_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("TSE_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok := config.EnvString("TSE_TRACE_EXPORTER"); ok {
		cfg.TraceExporter = value
	}
	return nil
}

func createWriter(cfg *config.Config, stdout io.Writer) (pipeline.OutputWriter, error) {
	switch cfg.OutputFormat {
	case "json":
		if cfg.OutputFile == "" {
			return pipeline.NewJSONWriterTo(stdout, cfg.Pretty), nil
		}
		return pipeline.NewJSONWriter(cfg.OutputFile, cfg.Pretty)
	case "csv":
		return pipeline.NewCSVWriter(cfg.OutputFile)
	case "dual":
		csvFile, jsonFile := pipeline.DualPaths(cfg.OutputFile)
		return pipeline.NewDualWriter(csvFile, jsonFile, cfg.Pretty)
	default:
		return nil, fmt.Errorf("unsupported format: %s", cfg.OutputFormat)
	}
}

func serveMetrics(addr string, metrics *scraper.Metrics) (stop func()) {
	if addr == "" || metrics == nil {
		return func() {}
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func newLogger(w io.Writer, verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
