package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-tse-id/models"
)

func TestPrintSummaryShowsLastError(t *testing.T) {
	report := models.Report{
		RunID:        "run-1",
		Attempts:     2,
		PagesPlanned: 3,
		PagesFetched: 2,
		FailedPages:  []int{3},
		ErrorsByType: map[string]int{"navigation": 2},
		LastError:    "navigate https://bsi.test/list?p=3: net::ERR_CONNECTION_RESET",
	}
	metrics := map[string]interface{}{
		"processed_records": int64(5),
		"validation_errors": map[string]int{},
	}

	var buf bytes.Buffer
	printSummary(&buf, report, 1500*time.Millisecond, "/tmp/out.json", metrics)
	out := buf.String()

	for _, want := range []string{"Last error", "ERR_CONNECTION_RESET", "2/3", "navigation=2", "Failed pages"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dropped") {
		t.Fatalf("no dropped row expected without validation errors:\n%s", out)
	}
}

func TestPrintSummaryOmitsEmptyLastError(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, models.Report{Attempts: 1}, time.Second, "out.json", map[string]interface{}{})
	if strings.Contains(buf.String(), "Last error") {
		t.Fatalf("unexpected last error row:\n%s", buf.String())
	}
}
