package dsl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/canyon-trail/reportscript-sub000/dsl"
	"github.com/canyon-trail/reportscript-sub000/layout"
)

func sampleData() map[string]any {
	return map[string]any{
		"site": "North",
		"items": []any{
			map[string]any{"name": "bolts", "qty": 12.0},
			map[string]any{"name": "nuts", "qty": 7.0},
		},
	}
}

func convert(t *testing.T, src string, data any) *layout.Document {
	t.Helper()
	rep, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	doc, err := dsl.ToDocument(rep, data)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	return doc
}

func TestToDocument(t *testing.T) {
	doc := convert(t, sampleReport, sampleData())

	if doc.Layout != layout.Portrait || doc.PageSize != layout.A4 {
		t.Fatalf("page options not applied: %s %s", doc.Layout, doc.PageSize)
	}
	if doc.Meta.Title != "Inventory" || doc.Meta.Author != "Ops" {
		t.Fatalf("meta: %+v", doc.Meta)
	}
	if !doc.PageNumbers || !doc.RepeatSectionHeaders || doc.TimestampFormat != "2006-01-02" {
		t.Fatalf("flags not applied: %+v", doc)
	}
	if doc.TableGap == nil || *doc.TableGap != 12 {
		t.Fatalf("tableGap: %v", doc.TableGap)
	}
	if doc.Style == nil || doc.Style.FontSize == nil || *doc.Style.FontSize != 8 {
		t.Fatalf("document font size not applied")
	}
	if doc.Watermark == nil || doc.Watermark.Text != "DRAFT" || doc.Watermark.Color != "#cccccc" ||
		doc.Watermark.FontSize != 60 || doc.Watermark.Opacity != 0.25 {
		t.Fatalf("watermark: %+v", doc.Watermark)
	}

	header := doc.Headers.Rows[0].Data[0].(layout.Cell)
	if header.ColumnSpan != 2 || header.Style == nil || !*header.Style.Bold {
		t.Fatalf("header cell attributes: %+v", header)
	}
	if header.Content.(layout.Text).Value != "Inventory for North" {
		t.Fatalf("header text not interpolated: %+v", header.Content)
	}

	if len(doc.Sections) != 1 {
		t.Fatalf("expected one section, got %d", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.TableGap == nil || *s.TableGap != 6 || s.Headers.Rows[0].Data[0] != "Warehouse A" {
		t.Fatalf("section settings: %+v", s)
	}

	table := s.Tables[0]
	if len(table.Columns) != 2 || table.Columns[0].Width != "2fr" || table.Columns[1].Width != "1 fr" {
		t.Fatalf("columns: %+v", table.Columns)
	}
	if table.Columns[0].Split == nil || table.Columns[1].Split != nil || table.Columns[1].Align != layout.AlignRight {
		t.Fatalf("column split/alignment: %+v", table.Columns)
	}
	if len(table.Headers) != 1 || !*table.Headers[0].Style.Bold {
		t.Fatalf("header row: %+v", table.Headers)
	}

	if len(table.Rows) != 4 {
		t.Fatalf("expected 2 repeated rows and 2 literal rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Data[0] != "bolts" || table.Rows[1].Data[1] != "7" {
		t.Fatalf("each rows: %+v %+v", table.Rows[0], table.Rows[1])
	}

	media := table.Rows[2]
	if *media.Style.BackgroundColor != "#eeeeee" {
		t.Fatalf("row background not applied")
	}
	img := media.Data[0].(layout.Cell).Content.(layout.Image)
	if img.Src != "logo.png" || img.Width != 40 || img.Height != 20 {
		t.Fatalf("image cell: %+v", img)
	}
	chart := media.Data[1].(layout.Cell).Content.(layout.Chart)
	if chart.MinHeight != 80 || chart.MaxHeight != nil {
		t.Fatalf("chart cell: %+v", chart)
	}
	config := chart.Config.(map[string]any)
	if config["kind"] != "bar" || len(config["values"].([]any)) != 3 {
		t.Fatalf("chart config: %+v", config)
	}

	last := table.Rows[3]
	tpl := last.Data[0].(layout.Cell).Content.(layout.TemplateText)
	if got := tpl.Template(layout.TemplateVars{SectionPageNumber: 4}); got != "Page 4" {
		t.Fatalf("template rendered %q", got)
	}
	multi := last.Data[1].(layout.Cell)
	if multi.HAlign != layout.AlignCenter || multi.Content.(layout.Text).Value != "a\nb" {
		t.Fatalf("multi-line cell: %+v", multi)
	}
}

func TestToDocumentBuilds(t *testing.T) {
	doc := convert(t, sampleReport, sampleData())
	measurer := layout.MeasurerFunc(func(text string, _ float64, opts layout.TextOptions) (float64, error) {
		return float64(strings.Count(text, "\n")+1) * opts.FontSize, nil
	})
	pd, err := layout.Build(doc, layout.BuildOptions{Measurer: measurer, Created: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(pd.Pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(pd.Pages))
	}
	if pd.Pages[0].Watermark == nil || pd.Pages[0].Watermark.Text != "DRAFT" {
		t.Fatalf("page watermark missing")
	}
}

func TestToDocumentErrors(t *testing.T) {
	cases := map[string]string{
		"unknown setting":   `report { colour: "red" }`,
		"unknown command":   `report { paragraph { "x" } }`,
		"bad template":      `report { table { row { template "{{pageNumber}}" } } }`,
		"each without list": `report { table { each missing as m { row { "x" } } } }`,
		"bad span":          `report { table { row { cell span zero { "x" } } } }`,
		"bad page option":   `report tabloid { }`,
	}
	for name, src := range cases {
		rep, err := dsl.ParseString(src)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", name, err)
		}
		if _, err := dsl.ToDocument(rep, sampleData()); err == nil {
			t.Fatalf("%s: expected a conversion error", name)
		}
	}
}

func TestChartConfigResolvesPaths(t *testing.T) {
	src := `report {
  table {
    row {
      chart minHeight 40 {
        stacked: false
        series: stock.levels
        label: missing.path
      }
    }
  }
}`
	data := map[string]any{"stock": map[string]any{"levels": []any{3.0, 4.0}}}
	doc := convert(t, src, data)

	chart := doc.Sections[0].Tables[0].Rows[0].Data[0].(layout.Cell).Content.(layout.Chart)
	config := chart.Config.(map[string]any)
	if config["stacked"] != false {
		t.Fatalf("expected a boolean, got %#v", config["stacked"])
	}
	if levels, ok := config["series"].([]any); !ok || len(levels) != 2 {
		t.Fatalf("series should resolve against data, got %#v", config["series"])
	}
	if config["label"] != "missing.path" {
		t.Fatalf("unresolved paths stay literal, got %#v", config["label"])
	}
}
