package scraper

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-tse-id/dom"
	"go.opentelemetry.io/otel/attribute"
)

// Page numbers carried in link targets. Every pattern is tried on every href.
var hrefPagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]p=(\d+)`),
	regexp.MustCompile(`[?&]page=(\d+)`),
	regexp.MustCompile(`[?&](\d+)$`),
	regexp.MustCompile(`gtp=913608_list%253D(\d+)`),
	regexp.MustCompile(`page(\d+)`),
	regexp.MustCompile(`p(\d+)`),
}

// Page counts stated in prose, such as "Seite 1 von 5".
var textPageCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Page|Seite)[\s\p{Z}]+\d+[\s\p{Z}]+(?:of|von)[\s\p{Z}]+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)[\s\p{Z}]+(?:pages|seiten)`),
	regexp.MustCompile(`(?i)showing[\s\p{Z}]+\d+.*?of[\s\p{Z}]+(\d+)`),
	regexp.MustCompile(`(?i)anzeige[\s\p{Z}]+\d+.*?von[\s\p{Z}]+(\d+)`),
}

var (
	forwardLinkText   = []string{"next", "weiter", ">", "→"}
	forwardLinkHref   = []string{"next", "weiter"}
	morePagesBodyText = []string{"weiter", "next", "mehr"}
)

const (
	numberedLinkSelector = `a[href*="p="], a[href*="page"]`
	secondPageSelector   = `a[href*="p=2"], a[href*="page=2"]`

	// assumedPages is reported when the page hints at more results without
	// saying how many.
	assumedPages = 3
)

// DetectTotalPages loads page 1 and estimates how many result pages exist.
func (r *Retriever) DetectTotalPages(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "DetectTotalPages")
	defer span.End()

	url := r.PageURL(1)
	r.logger.Debug("detecting total pages", slog.String("url", url))

	doc, err := r.loadDocument(ctx, url)
	if err != nil {
		failSpan(span, err)
		return 0, err
	}

	total := EstimatePages(doc)
	span.SetAttributes(attribute.Int("pages", total))
	r.logger.Info("detected total pages", slog.Int("pages", total))
	return total, nil
}

// EstimatePages guesses the number of result pages from pagination links
// and page-count text. The result is at least 1.
func EstimatePages(doc *dom.Document) int {
	maxPage := 1
	links := doc.Links()

	for _, link := range links {
		if link.Href == "" {
			continue
		}
		for _, pattern := range hrefPagePatterns {
			if n, ok := firstGroupInt(pattern, link.Href); ok && n > maxPage {
				maxPage = n
			}
		}
	}

	if maxPage == 1 {
		for _, link := range links {
			if isForwardLink(link) {
				maxPage = max(maxPage, 2)
			}
		}
	}

	body := doc.Text()
	for _, pattern := range textPageCountPatterns {
		if n, ok := firstGroupInt(pattern, body); ok && n > maxPage {
			maxPage = n
		}
	}

	for _, link := range doc.LinksMatching(numberedLinkSelector) {
		if n, ok := leadingInt(strings.TrimSpace(link.Text)); ok && n > maxPage {
			maxPage = n
		}
	}

	if maxPage == 1 {
		lower := strings.ToLower(body)
		if containsAny(lower, morePagesBodyText) || doc.Has(secondPageSelector) {
			maxPage = assumedPages
		}
	}

	return maxPage
}

func isForwardLink(link dom.Link) bool {
	return containsAny(strings.ToLower(link.Text), forwardLinkText) ||
		containsAny(strings.ToLower(link.Href), forwardLinkHref)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func firstGroupInt(pattern *regexp.Regexp, s string) (int, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingInt parses the integer prefix of s, ignoring anything after the
// digits: "12 »" yields 12, "»" yields nothing.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
