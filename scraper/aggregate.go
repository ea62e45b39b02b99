package scraper

import (
	"context"
	"log/slog"

	"github.com/aluiziolira/go-tse-id/models"
	"go.opentelemetry.io/otel/attribute"
)

// RetrieveAllPages fetches pages 1..N in order and merges their records,
// later pages winning on key collisions. N is cfg.Pages when set, otherwise
// it is detected once. A failing page is logged and skipped.
func (r *Retriever) RetrieveAllPages(ctx context.Context) (models.Collection, error) {
	ctx, span := r.tracer.Start(ctx, "RetrieveAllPages")
	defer span.End()

	if !r.session.Active() {
		return nil, ErrNotInitialized
	}

	total := r.cfg.Pages
	if total <= 0 {
		detected, err := r.DetectTotalPages(ctx)
		if err != nil {
			failSpan(span, err)
			return nil, err
		}
		total = detected
	}
	r.Metrics.SetDetectedPages(total)
	r.report.PagesPlanned = total
	span.SetAttributes(attribute.Int("pages", total))
	r.logger.Info("retrieving pages", slog.Int("pages", total))

	all := make(models.Collection)
	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			failSpan(span, err)
			return nil, err
		}

		records, err := r.FetchPage(ctx, page)
		if err != nil {
			label := r.recordError(err)
			r.Metrics.IncPage("failed")
			r.report.FailedPages = append(r.report.FailedPages, page)
			r.logger.Warn("failed to retrieve page",
				slog.Int("page", page),
				slog.String("category", label),
				slog.Any("error", err),
			)
			continue
		}

		r.Metrics.IncPage("ok")
		r.report.PagesFetched++
		r.logger.Info("retrieved page", slog.Int("page", page), slog.Int("records", len(records)))
		all.Merge(records)
	}

	span.SetAttributes(attribute.Int("records", len(all)))
	return all, nil
}
