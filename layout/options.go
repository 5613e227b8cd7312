package layout

import (
	"log/slog"
	"time"
)

// BuildOptions configures Build with the text metrics backend and the
// creation instant used for timestamps.
type BuildOptions struct {
	Measurer TextMeasurer
	Created  time.Time    // time.Now() when zero
	Logger   *slog.Logger // stage summaries; discarded when nil
}

// TextOptions describes how a text value is set.
type TextOptions struct {
	FontSize float64
	Font     string
	Bold     bool
	LineGap  float64
	NoWrap   bool
}

// TextMeasurer reports the height text occupies when wrapped to width.
type TextMeasurer interface {
	MeasureTextHeight(text string, width float64, opts TextOptions) (float64, error)
}

// MeasurerFunc adapts a plain function to TextMeasurer.
type MeasurerFunc func(text string, width float64, opts TextOptions) (float64, error)

func (f MeasurerFunc) MeasureTextHeight(text string, width float64, opts TextOptions) (float64, error) {
	return f(text, width, opts)
}

func textOptions(s CellStyle) TextOptions {
	return TextOptions{
		FontSize: s.FontSize,
		Font:     s.Font,
		Bold:     s.Bold,
		LineGap:  s.LineGap,
		NoWrap:   s.NoWrap,
	}
}
