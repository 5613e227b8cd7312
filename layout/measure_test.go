package layout

import (
	"errors"
	"testing"
)

func measureDoc(t *testing.T, doc *Document, m TextMeasurer) *MeasuredDocument {
	t.Helper()
	nd, err := Normalize(doc)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	md, err := Measure(nd, m)
	if err != nil {
		t.Fatalf("measure failed: %v", err)
	}
	return md
}

func TestMeasureUndefinedCell(t *testing.T) {
	nd, err := Normalize(singleTable(Table{Rows: []Row{{Data: []any{"a", nil}}}}))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	_, err = Measure(nd, fixedMeasurer(10))
	var undefined *UndefinedCellError
	if !errors.As(err, &undefined) {
		t.Fatalf("expected UndefinedCellError, got %v", err)
	}
	if undefined.Column != 1 {
		t.Fatalf("wrong column %d", undefined.Column)
	}
}

func TestMeasureSpannedWidthAndPadding(t *testing.T) {
	rec := &recordingMeasurer{}
	md := measureDoc(t, singleTable(Table{
		Columns: []ColumnSetting{{Width: "1fr"}, {Width: "1fr"}, {Width: "1fr"}},
		Rows:    []Row{{Data: []any{Cell{Content: Text{Value: "wide"}, ColumnSpan: 2}, "narrow"}}},
	}), rec)

	cells := md.Sections[0].Tables[0].Rows[0].Cells
	if !approx(cells[0].Width, 504) || !approx(cells[1].Width, 252) {
		t.Fatalf("cell widths %g %g", cells[0].Width, cells[1].Width)
	}
	if !approx(rec.widths[0], 504-2*TextHPadding) {
		t.Fatalf("measurer should receive the padded width, got %g", rec.widths[0])
	}
	if rec.opts[0].FontSize != DefaultFontSize || rec.opts[0].LineGap != DefaultLineGap {
		t.Fatalf("text options %+v", rec.opts[0])
	}
	row := md.Sections[0].Tables[0].Rows[0]
	if row.MinHeight != 10+DefaultLineGap || row.MaxHeight == nil || *row.MaxHeight != row.MinHeight {
		t.Fatalf("text row should be fixed at %g, got %+v", 10+DefaultLineGap, row)
	}
}

func TestMeasureNoWrapUsesFirstLine(t *testing.T) {
	rec := &recordingMeasurer{}
	measureDoc(t, singleTable(Table{Rows: []Row{{Data: []any{
		Cell{Content: Text{Value: "first\nsecond"}, Style: &Style{NoWrap: Ptr(true)}},
	}}}}), rec)
	if rec.texts[0] != "first" || !rec.opts[0].NoWrap {
		t.Fatalf("no-wrap text measured as %q %+v", rec.texts[0], rec.opts[0])
	}
}

func TestMeasureChartsAndImages(t *testing.T) {
	md := measureDoc(t, singleTable(Table{Rows: []Row{
		{Data: []any{Chart{MinHeight: 100}, Image{Src: "a.png", Width: 10, Height: 30}}},
		{Data: []any{Chart{MinHeight: 50, MaxHeight: Ptr(80.0)}, "x"}, Image: &Image{Height: 20}},
	}}), fixedMeasurer(10))

	open := md.Sections[0].Tables[0].Rows[0]
	if open.MaxHeight != nil {
		t.Fatalf("row with an open chart must be expandable")
	}
	if open.MinHeight != 100+DefaultLineGap {
		t.Fatalf("open row min height %g", open.MinHeight)
	}

	closed := md.Sections[0].Tables[0].Rows[1]
	if closed.MaxHeight == nil {
		t.Fatalf("bounded chart row should have a max height")
	}
	if closed.MinHeight != 50+DefaultLineGap+20 || *closed.MaxHeight != 80+DefaultLineGap+20 {
		t.Fatalf("bounded row heights %g / %g", closed.MinHeight, *closed.MaxHeight)
	}
}

func TestMeasureTemplateWorstCase(t *testing.T) {
	rec := &recordingMeasurer{}
	doc := singleTable(Table{Rows: []Row{{Data: []any{
		TemplateText{Template: MustTemplate("Page {{documentPageNumber}} of {{documentPageCount}}")},
	}}}})
	doc.TimestampFormat = "2006-01-02 15:04"
	doc.Timestamp = true
	measureDoc(t, doc, rec)

	seen := map[string]bool{}
	for _, s := range rec.texts {
		seen[s] = true
	}
	if !seen["Page 1000 of 1000"] {
		t.Fatalf("template not measured at worst case: %q", rec.texts)
	}
	if !seen["2000-12-28 22:58"] {
		t.Fatalf("timestamp footer not measured at worst case: %q", rec.texts)
	}
}

func TestMeasureWidthOverflow(t *testing.T) {
	nd, err := Normalize(singleTable(Table{
		Columns: []ColumnSetting{{Width: "700pt"}, {Width: "100pt"}},
		Rows:    []Row{{Data: []any{"a", "b"}}},
	}))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	_, err = Measure(nd, fixedMeasurer(10))
	var overflow *WidthOverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("expected WidthOverflowError, got %v", err)
	}
}
