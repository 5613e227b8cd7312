package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tdewolff/canvas"

	"github.com/canyon-trail/reportscript-sub000/layout"
)

func bodyFace(t *testing.T, r *Renderer) *canvas.FontFace {
	t.Helper()
	face, err := r.fontFace("", false, 12, canvas.Black, false)
	if err != nil {
		t.Fatalf("font face: %v", err)
	}
	return face
}

func TestMeasureTextHeightWraps(t *testing.T) {
	r := NewRenderer(".")
	opts := layout.TextOptions{FontSize: 12}

	one, err := r.MeasureTextHeight("hello world again", 1000, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrow, err := r.MeasureTextHeight("hello world again", 30, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one <= 0 {
		t.Fatalf("expected a positive single line height, got %g", one)
	}
	if narrow < 2*one-1e-9 {
		t.Fatalf("expected wrapping into multiple lines: single=%g narrow=%g", one, narrow)
	}

	noWrap, err := r.MeasureTextHeight("hello world again", 30, layout.TextOptions{FontSize: 12, NoWrap: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if noWrap != one {
		t.Fatalf("nowrap text should stay on one line: %g vs %g", noWrap, one)
	}
}

func TestMeasureTextHeightScalesWithFontSize(t *testing.T) {
	r := NewRenderer(".")
	small, err := r.MeasureTextHeight("x", 1000, layout.TextOptions{FontSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	large, err := r.MeasureTextHeight("x", 1000, layout.TextOptions{FontSize: 14, Bold: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if large <= small {
		t.Fatalf("larger font should measure taller: %g <= %g", large, small)
	}
}

func TestWrapHonorsNewlines(t *testing.T) {
	r := NewRenderer(".")
	lines := wrapLines("foo\n\nbar", 100, bodyFace(t, r), false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].content)
	}
}

func TestWrapWidthLimit(t *testing.T) {
	r := NewRenderer(".")
	face := bodyFace(t, r)

	limit := 30.0 // mm
	for _, content := range []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"longlonglong longlonglong longlonglong longlonglong longlonglong",
	} {
		lines := wrapLines(content, limit, face, false)
		if len(lines) < 2 {
			t.Fatalf("expected %q to wrap, got %d lines", content, len(lines))
		}
		for i, ln := range lines {
			if ln.width-limit > 1e-6 {
				t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.width, limit)
			}
		}
	}
}

// A line exactly as wide as the limit followed by a newline must not leave a blank line.
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer(".")
	face := bodyFace(t, r)

	first := "SAMPLE-A"
	limit := face.TextWidth(first)
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	lines := wrapLines(first+"\n"+"SAMPLE-B", limit, face, false)
	if got := len(lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if lines[0].content != first || lines[1].content != "SAMPLE-B" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestUnknownFontFallsBack(t *testing.T) {
	r := NewRenderer(".")
	want, err := r.MeasureTextHeight("x", 1000, layout.TextOptions{FontSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := r.MeasureTextHeight("x", 1000, layout.TextOptions{FontSize: 10, Font: "Missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("fallback font should measure like the default: %g vs %g", got, want)
	}
}

func writePNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.Set(x, 1, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func sampleDocument() *layout.Document {
	rows := make([]layout.Row, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, layout.Row{Data: []any{"item", i, "a longer description that wraps inside the narrow column"}})
	}
	rows = append(rows, layout.Row{Data: []any{
		layout.Cell{Content: layout.Image{Src: "dot.png", Width: 16, Height: 8}},
		layout.Cell{Content: layout.Chart{MinHeight: 40, MaxHeight: layout.Ptr(60.0)}, ColumnSpan: 2},
	}})
	return &layout.Document{
		Meta:        layout.Meta{Title: "Stock", Author: "Ops"},
		PageNumbers: true,
		Watermark:   &layout.Watermark{Text: "DRAFT"},
		Style:       &layout.Style{Grid: layout.Ptr(true)},
		Sections: []layout.Section{{
			Tables: []layout.Table{{
				Headers: []layout.Row{{Data: []any{"Item", "Qty", "Notes"}, Style: &layout.Style{Bold: layout.Ptr(true), BackgroundColor: layout.Ptr("#eeeeee")}}},
				Rows:    rows,
				Columns: []layout.ColumnSetting{{Width: "1fr"}, {Width: "1fr", Align: layout.AlignRight}, {Width: "60pt"}},
			}},
		}},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "dot.png")

	charts := 0
	r := NewRendererWithOptions(Options{
		BaseDir: dir,
		Charts: func(ctx *canvas.Context, chart layout.Chart, box Box) error {
			charts++
			if box.Width <= 0 || box.Height <= 0 {
				t.Fatalf("chart box should have an area: %+v", box)
			}
			return nil
		},
	})

	pd, err := layout.Build(sampleDocument(), layout.BuildOptions{Measurer: r, Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(pd.Pages) < 2 {
		t.Fatalf("expected the table to span pages, got %d", len(pd.Pages))
	}

	out, err := r.Render(pd)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if charts != 1 {
		t.Fatalf("expected one chart draw, got %d", charts)
	}
}

func TestRenderMissingImage(t *testing.T) {
	r := NewRenderer(t.TempDir())
	pd, err := layout.Build(sampleDocument(), layout.BuildOptions{Measurer: r})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := r.Render(pd); err == nil {
		t.Fatalf("expected an error for a missing image")
	}
}

func TestRenderBuiltInImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "dot.png")
	r := NewRendererWithOptions(Options{Images: map[string]Resource{"dot": {Path: filepath.Join(dir, "dot.png")}}})

	doc := &layout.Document{Sections: []layout.Section{{Tables: []layout.Table{{
		Rows: []layout.Row{{Data: []any{"logo"}, Image: &layout.Image{Src: "built-in:dot", Width: 16, Height: 8}}},
	}}}}}
	pd, err := layout.Build(doc, layout.BuildOptions{Measurer: r})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := r.Render(pd); err != nil {
		t.Fatalf("render failed: %v", err)
	}
}

func TestRenderRejectsEmptyInput(t *testing.T) {
	r := NewRenderer(".")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected an error for a nil document")
	}
	if _, err := r.Render(&layout.PaginatedDocument{}); err == nil {
		t.Fatalf("expected an error for a document without pages")
	}
}

func TestParseColor(t *testing.T) {
	c := color.RGBAModel.Convert(parseColor("#ff0000", 1)).(color.RGBA)
	if c.R != 255 || c.G != 0 || c.A != 255 {
		t.Fatalf("unexpected color %+v", c)
	}
	if c := color.RGBAModel.Convert(parseColor("red", 1)).(color.RGBA); c.R != 0 || c.A != 255 {
		t.Fatalf("unknown colors should be black, got %+v", c)
	}
}
