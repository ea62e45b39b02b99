package dom

import (
	"errors"
	"testing"
)

const fixture = `<html><body>
<div id="content"><div class="wrapperTable"><table class="textualData">
<tr><td>BSI-K-TR-0001-2024</td><td>A</td><td>B</td><td>C</td></tr>
<tr><td>only</td><td>two</td></tr>
</table></div></div>
<a href="?p=2">2</a><a>no href</a><a href="/next">Weiter</a>
</body></html>`

func TestParseRejectsEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n"} {
		if _, err := Parse(input); !errors.Is(err, ErrEmptyDocument) {
			t.Fatalf("Parse(%q) error = %v, want ErrEmptyDocument", input, err)
		}
	}
}

func TestRowsReadsImplicitTbody(t *testing.T) {
	doc, err := Parse(fixture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rows := doc.Rows("#content div.wrapperTable table.textualData tbody tr")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if len(rows[0]) != 4 || rows[0][0] != "BSI-K-TR-0001-2024" {
		t.Fatalf("first row = %v", rows[0])
	}
	if len(rows[1]) != 2 {
		t.Fatalf("second row cells = %d, want 2", len(rows[1]))
	}
}

func TestLinks(t *testing.T) {
	doc, err := Parse(fixture)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	links := doc.Links()
	if len(links) != 3 {
		t.Fatalf("links = %d, want 3", len(links))
	}
	if links[0].Href != "?p=2" || links[0].Text != "2" {
		t.Fatalf("first link = %+v", links[0])
	}
	if links[1].Href != "" {
		t.Fatalf("anchor without href should have empty Href, got %q", links[1].Href)
	}

	if got := doc.LinksMatching(`a[href*="p="]`); len(got) != 1 {
		t.Fatalf("matching links = %d, want 1", len(got))
	}
	if !doc.Has(`a[href*="p=2"]`) {
		t.Fatalf("expected p=2 link to be present")
	}
	if doc.Has(`a[href*="page=2"]`) {
		t.Fatalf("unexpected page=2 link")
	}
}
