// Package dom exposes the few read-only queries the retriever runs against a
// loaded page: table rows, hyperlinks, selector presence and body text.
// Documents are built from serialized HTML, so the same code runs against a
// live browser snapshot and against static fixtures.
package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyDocument is returned by Parse when there is nothing to query.
var ErrEmptyDocument = errors.New("dom: document has no queryable root")

// Link is a hyperlink as it appears in the markup.
type Link struct {
	// Href is the raw href attribute, not resolved against the page URL.
	Href string
	// Text is the link's text content.
	Text string
}

// Document is a parsed HTML document.
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from serialized HTML.
func Parse(html string) (*Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Find("body").Length() == 0 {
		return nil, ErrEmptyDocument
	}
	return &Document{doc: doc}, nil
}

// Has reports whether at least one element matches selector.
func (d *Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// Rows returns, for each element matching selector, the text content of its
// td descendants.
func (d *Document) Rows(selector string) [][]string {
	var rows [][]string
	d.doc.Find(selector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return cell.Text()
		})
		rows = append(rows, cells)
	})
	return rows
}

// Links returns every anchor element of the document.
func (d *Document) Links() []Link {
	return d.LinksMatching("a")
}

// LinksMatching returns the anchors matching selector.
func (d *Document) LinksMatching(selector string) []Link {
	sel := d.doc.Find(selector)
	links := make([]Link, 0, sel.Length())
	sel.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, Link{Href: href, Text: a.Text()})
	})
	return links
}

// Text returns the text content of the document body.
func (d *Document) Text() string {
	return d.doc.Find("body").Text()
}
