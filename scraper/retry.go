package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-tse-id/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WithRetry runs initialize, retrieve and close as one attempt, up to
// maxAttempts times (cfg.MaxAttempts when maxAttempts <= 0). After failed
// attempt k it waits cfg.RetryBackoff*k. The wait is not interrupted by ctx,
// but ctx is checked before every attempt.
func (r *Retriever) WithRetry(ctx context.Context, maxAttempts int) (models.Collection, error) {
	if maxAttempts <= 0 {
		maxAttempts = r.cfg.MaxAttempts
	}

	runID := uuid.NewString()
	base := r.logger
	r.logger = base.With(slog.String("run_id", runID))
	defer func() { r.logger = base }()

	ctx, span := r.tracer.Start(ctx, "WithRetry", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("max_attempts", maxAttempts),
	))
	defer span.End()

	r.report = models.Report{
		RunID:        runID,
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}
	defer func() { r.report.EndTime = time.Now() }()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			_ = r.Close()
			failSpan(span, err)
			return nil, fmt.Errorf("retrieval canceled after %d attempts: %w", attempt-1, err)
		}

		r.startAttempt(attempt)
		records, err := r.attempt(ctx, attempt)
		if err == nil {
			r.Metrics.IncAttempt("ok")
			r.report.RecordCount = len(records)
			r.logger.Info("retrieval complete",
				slog.Int("attempt", attempt),
				slog.Int("records", len(records)),
			)
			return records, nil
		}

		lastErr = err
		r.report.LastError = err.Error()
		r.Metrics.IncAttempt("failed")
		label := r.recordError(err)
		_ = r.Close()

		r.logger.Warn("attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.String("category", label),
			slog.Any("error", err),
		)

		if attempt < maxAttempts {
			delay := r.cfg.RetryBackoff * time.Duration(attempt)
			r.logger.Info("retrying", slog.Duration("delay", delay))
			r.sleep(delay)
		}
	}

	exhausted := &RetrievalExhaustedError{Attempts: maxAttempts, Err: lastErr}
	failSpan(span, exhausted)
	return nil, exhausted
}

func (r *Retriever) startAttempt(attempt int) {
	r.report.Attempts = attempt
	r.report.PagesPlanned = 0
	r.report.PagesFetched = 0
	r.report.FailedPages = nil
}

func (r *Retriever) attempt(ctx context.Context, n int) (models.Collection, error) {
	ctx, span := r.tracer.Start(ctx, "attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	if err := r.Initialize(ctx); err != nil {
		failSpan(span, err)
		return nil, err
	}
	records, err := r.RetrieveAllPages(ctx)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return records, nil
}
