package layout

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseTemplate("Page {{ documentPageNumber }} of {{documentPageCount}} ({{timestamp}})")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := tpl(TemplateVars{DocumentPageNumber: 2, DocumentPageCount: 9, Timestamp: "today"})
	if got != "Page 2 of 9 (today)" {
		t.Fatalf("rendered %q", got)
	}

	_, err = ParseTemplate("Page {{pageNumber}}")
	var invalid *InvalidTemplateVariableError
	if !errors.As(err, &invalid) || invalid.Name != "pageNumber" {
		t.Fatalf("expected InvalidTemplateVariableError for pageNumber, got %v", err)
	}
}

func footerText(t *testing.T, p Page) string {
	t.Helper()
	last := p.Rows[len(p.Rows)-1]
	if last.Kind != RowFooter {
		t.Fatalf("page should end with the footer, got %s", last.Kind)
	}
	return cellText(t, last.Cells[1])
}

func TestResolveDocumentPageNumbers(t *testing.T) {
	doc := singleTable(Table{Rows: textRows(7, "row")})
	doc.PageNumbers = true
	doc.Timestamp = true
	pd := paginate(t, doc, quarter)

	if len(pd.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pd.Pages))
	}
	for i, p := range pd.Pages {
		if want := fmt.Sprintf("Page %d of 3", i+1); footerText(t, p) != want {
			t.Fatalf("page %d footer %q, want %q", i, footerText(t, p), want)
		}
		stamp := cellText(t, p.Rows[len(p.Rows)-1].Cells[0])
		if stamp != "3/14/2024 9:05:00 AM" {
			t.Fatalf("timestamp %q", stamp)
		}
		if total := rowsHeight(p.Rows); !approx(total, innerHeight) {
			t.Fatalf("page %d: footer not pushed to the bottom, rows fill %g", i, total)
		}
	}
	if countRows(pd.Pages[2], RowSpacer) != 1 {
		t.Fatalf("short last page needs a spacer row")
	}
}

func TestResolveSectionPageNumbers(t *testing.T) {
	doc := &Document{
		SectionPageNumbers: true,
		Sections: []Section{
			{Tables: []Table{{Rows: textRows(7, "first")}}},
			{Tables: []Table{{Rows: textRows(2, "second")}}},
		},
	}
	pd := paginate(t, doc, quarter)
	want := []string{"Page 1 of 3", "Page 2 of 3", "Page 3 of 3", "Page 1 of 1"}
	if len(pd.Pages) != len(want) {
		t.Fatalf("expected %d pages, got %d", len(want), len(pd.Pages))
	}
	for i, p := range pd.Pages {
		if got := footerText(t, p); got != want[i] {
			t.Fatalf("page %d footer %q, want %q", i, got, want[i])
		}
	}
}

func TestResolveTemplateCellsInBody(t *testing.T) {
	rows := textRows(9, "row")
	rows[0] = Row{Data: []any{TemplateText{Template: MustTemplate("{{documentPageNumber}}/{{documentPageCount}} s{{sectionPageNumber}}")}}}
	pd := paginate(t, singleTable(Table{Rows: rows}), quarter)
	if len(pd.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pd.Pages))
	}
	if got := cellText(t, pd.Pages[0].Rows[0].Cells[0]); got != "1/3 s1" {
		t.Fatalf("template resolved to %q", got)
	}
}
