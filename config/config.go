package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"dario.cat/mergo"
)

// DefaultURL is the BSI list of certified TSEs, sorted by title. The page
// number is appended verbatim to select a result page.
const DefaultURL = "https://www.bsi.bund.de/EN/Themen/Unternehmen-und-Organisationen/Standards-und-Zertifizierung/Zertifizierung-und-Anerkennung/Listen/Zertifizierte-Produkte-nach-TR/Technische_Sicherheitseinrichtungen/TSE_node.html?gts=913608_list%253Dtitle_text_sort%252Bdesc&gtp=913608_list%253D"

// Supported page drivers.
const (
	DriverPlaywright = "playwright"
	DriverHTTP       = "http"
)

// Configuration validation errors.
var (
	ErrEmptyURL          = errors.New("url cannot be empty")
	ErrInvalidTimeout    = errors.New("timeout must be positive")
	ErrNegativePages     = errors.New("pages cannot be negative")
	ErrInvalidAttempts   = errors.New("max attempts must be positive")
	ErrNegativeBackoff   = errors.New("retry backoff cannot be negative")
	ErrUnsupportedDriver = errors.New("driver must be playwright or http")
	ErrUnsupportedFormat = errors.New("output format must be json, csv, or dual")
	ErrUnsupportedTracer = errors.New("trace exporter must be stdout or otlp")
)

// Config holds retriever configuration.
type Config struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"timeout"`
	Pages          int           `yaml:"pages"` // 0 means detect on every attempt
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	Driver         string        `yaml:"driver"`
	ExecutablePath string        `yaml:"executable_path"`
	Headless       bool          `yaml:"headless"`
	UserAgent      string        `yaml:"user_agent"`
	CacheSize      int           `yaml:"cache_size"`
	OutputFile     string        `yaml:"output_file"` // empty means stdout
	OutputFormat   string        `yaml:"output_format"`
	Pretty         bool          `yaml:"pretty"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	TraceExporter  string        `yaml:"trace_exporter"` // "", stdout or otlp
	OTLPEndpoint   string        `yaml:"otlp_endpoint"`
	Verbose        bool          `yaml:"verbose"`
}

// Options is the partial override accepted at the library boundary.
// Zero values keep the defaults.
type Options struct {
	URL     string
	Timeout int // milliseconds
	Pages   int
}

// DefaultConfig returns the defaults for the BSI target.
func DefaultConfig() *Config {
	return &Config{
		URL:          DefaultURL,
		Timeout:      30 * time.Second,
		Pages:        0,
		MaxAttempts:  3,
		RetryBackoff: 2 * time.Second,
		Driver:       DriverPlaywright,
		Headless:     true,
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		CacheSize:    32,
		OutputFormat: "json",
	}
}

// Apply merges the non-zero fields of opts into c.
func (c *Config) Apply(opts *Options) error {
	if opts == nil {
		return nil
	}
	override := Config{
		URL:     opts.URL,
		Timeout: time.Duration(opts.Timeout) * time.Millisecond,
		Pages:   opts.Pages,
	}
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge options: %w", err)
	}
	return nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrEmptyURL
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Pages < 0 {
		return ErrNegativePages
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidAttempts
	}
	if c.RetryBackoff < 0 {
		return ErrNegativeBackoff
	}
	if c.Driver != DriverPlaywright && c.Driver != DriverHTTP {
		return ErrUnsupportedDriver
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.OutputFormat != "json" && c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return ErrUnsupportedFormat
	}
	if c.TraceExporter != "" && c.TraceExporter != "stdout" && c.TraceExporter != "otlp" {
		return ErrUnsupportedTracer
	}
	if c.OTLPEndpoint != "" && c.TraceExporter != "otlp" {
		return fmt.Errorf("otlp endpoint requires the otlp trace exporter")
	}
	if c.OutputFormat != "json" && c.OutputFile == "" {
		return fmt.Errorf("%s output requires an output file", c.OutputFormat)
	}
	return nil
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value := os.Getenv(key)
	return value, value != ""
}

// EnvInt parses key as an integer when it is set.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvDuration parses key as a time.Duration ("45s") when it is set.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}
