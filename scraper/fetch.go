package scraper

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aluiziolira/go-tse-id/dom"
	"github.com/aluiziolira/go-tse-id/models"
	"github.com/aluiziolira/go-tse-id/parser"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RowSelector matches the data rows of the result table.
const RowSelector = "#content div.wrapperTable table.textualData tbody tr"

// PageURL returns the address of result page n.
func (r *Retriever) PageURL(n int) string {
	return r.cfg.URL + strconv.Itoa(n)
}

// FetchPage loads result page n and returns its records.
func (r *Retriever) FetchPage(ctx context.Context, pageNumber int) (models.Collection, error) {
	ctx, span := r.tracer.Start(ctx, "FetchPage", trace.WithAttributes(attribute.Int("page", pageNumber)))
	defer span.End()

	start := time.Now()
	url := r.PageURL(pageNumber)
	r.logger.Debug("fetching page", slog.Int("page", pageNumber), slog.String("url", url))

	doc, err := r.loadDocument(ctx, url)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	records := ExtractRecords(doc)
	r.Metrics.ObserveDuration(time.Since(start))
	r.Metrics.AddRecords(len(records))
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

// ExtractRecords reads every well-formed result row of doc.
func ExtractRecords(doc *dom.Document) models.Collection {
	records := make(models.Collection)
	for _, cells := range doc.Rows(RowSelector) {
		record, ok := parser.RecordFromCells(cells)
		if !ok {
			continue
		}
		records.Add(record)
	}
	return records
}

// loadDocument opens a page, waits for the result table and parses the
// document. The page is closed on every path.
func (r *Retriever) loadDocument(ctx context.Context, url string) (*dom.Document, error) {
	b, err := r.session.Browser()
	if err != nil {
		return nil, err
	}

	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, &NavigationError{URL: url, Err: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Debug("page close failed", slog.String("url", url), slog.Any("error", err))
		}
	}()

	if err := page.Goto(ctx, url, r.cfg.Timeout); err != nil {
		return nil, &NavigationError{URL: url, Err: err}
	}
	if err := page.WaitForSelector(ctx, RowSelector, r.cfg.Timeout); err != nil {
		return nil, &TimeoutError{URL: url, Selector: RowSelector, Err: err}
	}

	html, err := page.Content(ctx)
	if err != nil {
		return nil, &ExtractionError{URL: url, Err: err}
	}
	doc, err := dom.Parse(html)
	if err != nil {
		return nil, &ExtractionError{URL: url, Err: err}
	}
	return doc, nil
}
