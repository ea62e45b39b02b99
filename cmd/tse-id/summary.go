package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aluiziolira/go-tse-id/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

func printSummary(w io.Writer, report models.Report, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Retrieval complete")

	written := int64(0)
	if processed, ok := metrics["processed_records"].(int64); ok {
		written = processed
	}

	t.AppendRows([]table.Row{
		{"Run ID", report.RunID},
		{"Attempts", report.Attempts},
		{"Pages", fmt.Sprintf("%d/%d", report.PagesFetched, report.PagesPlanned)},
		{"Failed pages", joinInts(report.FailedPages)},
		{"Total entries", written},
	})
	if len(report.ErrorsByType) > 0 {
		t.AppendRow(table.Row{"Errors", formatCounts(report.ErrorsByType)})
	}
	if report.LastError != "" {
		t.AppendRow(table.Row{"Last error", report.LastError})
	}
	if invalid, ok := metrics["validation_errors"].(map[string]int); ok && len(invalid) > 0 {
		t.AppendRow(table.Row{"Dropped", formatCounts(invalid)})
	}
	t.AppendRows([]table.Row{
		{"Duration", duration.Round(time.Millisecond)},
		{"Output file", outputFile},
	})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
