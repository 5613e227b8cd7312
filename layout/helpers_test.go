package layout

import (
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// innerHeight of a landscape letter page.
const innerHeight = 576.0

var testCreated = time.Date(2024, time.March, 14, 9, 5, 0, 0, time.UTC)

// fixedMeasurer makes every text cell exactly h tall including the default line gap.
func fixedMeasurer(h float64) TextMeasurer {
	return MeasurerFunc(func(string, float64, TextOptions) (float64, error) {
		return h - DefaultLineGap, nil
	})
}

// lineMeasurer sets 10pt lines and wraps one character per 5pt of width.
func lineMeasurer() TextMeasurer {
	return MeasurerFunc(func(text string, width float64, _ TextOptions) (float64, error) {
		perLine := math.Max(math.Floor(width/5), 1)
		lines := 0.0
		for _, l := range strings.Split(text, "\n") {
			n := float64(utf8.RuneCountInString(l))
			lines += math.Max(math.Ceil(n/perLine), 1)
		}
		return lines * 10, nil
	})
}

// recordingMeasurer remembers every call it receives.
type recordingMeasurer struct {
	texts  []string
	widths []float64
	opts   []TextOptions
}

func (r *recordingMeasurer) MeasureTextHeight(text string, width float64, opts TextOptions) (float64, error) {
	r.texts = append(r.texts, text)
	r.widths = append(r.widths, width)
	r.opts = append(r.opts, opts)
	return 10, nil
}

func textRows(n int, text string) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{Data: []any{text}}
	}
	return rows
}

func countRows(p Page, kind RowKind) int {
	n := 0
	for _, r := range p.Rows {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

func cellText(t *testing.T, c MeasuredCell) string {
	t.Helper()
	txt, ok := c.Content.(Text)
	if !ok {
		t.Fatalf("expected text content, got %T", c.Content)
	}
	return txt.Value
}

func paginate(t *testing.T, doc *Document, m TextMeasurer) *PaginatedDocument {
	t.Helper()
	pd, err := Build(doc, BuildOptions{Measurer: m, Created: testCreated})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return pd
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
