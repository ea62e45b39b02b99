package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-tse-id/browser"
	"github.com/aluiziolira/go-tse-id/scraper"
	"github.com/jarcoal/httpmock"
)

const testURL = "https://bsi.test/list?p="

const firstPage = `<html><body><div id="content"><div class="wrapperTable">
<table class="textualData"><tbody>
<tr><td>BSI-K-TR-0781-2025</td><td>D-Trust  TSE</td><td>Müller/GmbH</td><td>03.02.2025</td></tr>
<tr><td>Kein Eintrag</td><td>-</td><td>-</td><td>-</td></tr>
</tbody></table></div></div></body></html>`

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func execute(t *testing.T, transport *httpmock.MockTransport, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&browser.StaticLauncher{Transport: transport})
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRunWritesEscapedJSONToStdout(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testURL+"1", htmlResponder(firstPage))

	stdout, _, err := execute(t, transport, "--driver", "http", "--url", testURL, "--attempts", "1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := `{"0781-2025":{"id":"0781","year":"2025","content":"D-Trust TSE","manufacturer":"M\u00fcller\/GmbH","date_issuance":"03.02.2025"}}` + "\n"
	if stdout != want {
		t.Fatalf("stdout = %s\nwant %s", stdout, want)
	}
	if got := transport.GetTotalCallCount(); got != 1 {
		t.Fatalf("requests = %d, want 1 (detection page is cached)", got)
	}
}

func TestRunWritesPrettyFileAndSummary(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testURL+"1", htmlResponder(firstPage))

	path := filepath.Join(t.TempDir(), "data.json")
	stdout, stderr, err := execute(t, transport, "--driver", "http", "--url", testURL, "--pages", "1", "-o", path, "-p")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if stdout != "" {
		t.Fatalf("nothing should be printed to stdout, got %q", stdout)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n    \"0781-2025\": {\n        \"id\": \"0781\",") {
		t.Fatalf("unexpected pretty output:\n%s", data)
	}
	if !strings.Contains(stderr, "Retrieval complete") || !strings.Contains(stderr, "Total entries") {
		t.Fatalf("summary missing from stderr:\n%s", stderr)
	}
}

func TestRunExportsTracesToStderr(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testURL+"1", htmlResponder(firstPage))

	stdout, stderr, err := execute(t, transport, "--driver", "http", "--url", testURL, "--pages", "1", "--trace-exporter", "stdout")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(stdout, `{"0781-2025":`) {
		t.Fatalf("stdout must carry only the records, got %q", stdout)
	}
	for _, name := range []string{"WithRetry", "attempt", "RetrieveAllPages", "FetchPage"} {
		if !strings.Contains(stderr, `"Name":"`+name+`"`) {
			t.Fatalf("span %s missing from stderr:\n%s", name, stderr)
		}
	}
}

func TestRunFailureReturnsExhaustedError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testURL+"1", httpmock.NewStringResponder(503, "unavailable"))

	path := filepath.Join(t.TempDir(), "data.json")
	_, _, err := execute(t, transport, "--driver", "http", "--url", testURL, "--attempts", "1", "-o", path)

	var exhausted *scraper.RetrievalExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetrievalExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", exhausted.Attempts)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("no output file should be created on failure")
	}
}

func TestRunRejectsInvalidConfigurationBeforeFetching(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "csv to stdout", args: []string{"--format", "csv"}, wantErr: "csv"},
		{name: "negative pages", args: []string{"--pages", "-1"}, wantErr: "pages"},
		{name: "unknown driver", args: []string{"--driver", "selenium"}, wantErr: "driver"},
		{name: "unknown trace exporter", args: []string{"--trace-exporter", "jaeger"}, wantErr: "trace exporter"},
		{name: "missing config file", args: []string{"--config", "/nonexistent/tse.yaml"}, wantErr: "not found"},
		{name: "positional argument", args: []string{"extra"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			_, _, err := execute(t, transport, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if transport.GetTotalCallCount() != 0 {
				t.Fatalf("no request should be issued")
			}
		})
	}
}

func TestBuildConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "url: https://file.test/list?p=\ntimeout: 5s\npages: 2\nmax_attempts: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TSE_PAGES", "3")
	t.Setenv("TSE_TIMEOUT", "7s")

	opts := &options{}
	cmd := newRootCmdWithOptions(opts, nil)
	if err := cmd.ParseFlags([]string{"--config", path, "--pages", "4", "--format", "JSON"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if cfg.URL != "https://file.test/list?p=" {
		t.Fatalf("url = %q, want value from file", cfg.URL)
	}
	if cfg.Timeout != 7*time.Second {
		t.Fatalf("timeout = %v, want value from environment", cfg.Timeout)
	}
	if cfg.Pages != 4 {
		t.Fatalf("pages = %d, want value from flag", cfg.Pages)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("attempts = %d, want value from file", cfg.MaxAttempts)
	}
	if cfg.OutputFormat != "json" {
		t.Fatalf("format = %q, want lowercased", cfg.OutputFormat)
	}
}

func TestBuildConfigRejectsBadEnvironment(t *testing.T) {
	t.Setenv("TSE_PAGES", "many")

	opts := &options{}
	cmd := newRootCmdWithOptions(opts, nil)
	if _, err := buildConfig(cmd, opts); err == nil {
		t.Fatalf("expected error for invalid TSE_PAGES")
	}
}

func TestInstallCommandRegistered(t *testing.T) {
	cmd := newRootCmd(nil)
	install, _, err := cmd.Find([]string{"install"})
	if err != nil || install.Name() != "install" {
		t.Fatalf("install subcommand not found: %v", err)
	}
}
