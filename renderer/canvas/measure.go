package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/canyon-trail/reportscript-sub000/layout"
)

type textLine struct {
	content string
	width   float64 // mm
}

// MeasureTextHeight implements layout.TextMeasurer with a greedy wrap.
// width and the result are in points.
func (r *Renderer) MeasureTextHeight(text string, width float64, opts layout.TextOptions) (float64, error) {
	face, err := r.fontFace(opts.Font, opts.Bold, opts.FontSize, canvas.Black, false)
	if err != nil {
		return 0, err
	}
	lines := wrapLines(text, toMm(width), face, opts.NoWrap)
	return float64(len(lines)) * lineHeight(face, opts.FontSize), nil
}

// lineHeight is the height of one line of face in points.
func lineHeight(face *canvas.FontFace, size float64) float64 {
	if h := face.Metrics().LineHeight; h > 0 {
		return toPt(h)
	}
	return size
}

// wrapLines breaks content into lines no wider than width (mm), preferring
// whitespace and splitting inside words only when a word alone overflows.
// Explicit newlines always break; noWrap breaks on nothing else.
func wrapLines(content string, width float64, face *canvas.FontFace, noWrap bool) []textLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	if noWrap {
		parts := strings.Split(strings.ReplaceAll(content, "\r", ""), "\n")
		lines := make([]textLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, textLine{content: p, width: face.TextWidth(p)})
		}
		return lines
	}

	var lines []textLine
	var builder strings.Builder
	currentWidth := 0.0
	wrapped := false

	emit := func(force bool) {
		wrapped = !force
		if builder.Len() == 0 {
			if force {
				lines = append(lines, textLine{})
			}
			return
		}
		// trailing blanks never push a line past its limit
		lineStr := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
		lines = append(lines, textLine{content: lineStr, width: face.TextWidth(lineStr)})
		builder.Reset()
		currentWidth = 0
	}

	appendToken := func(token string) {
		builder.WriteString(token)
		currentWidth += face.TextWidth(token)
	}

	for _, token := range tokenize(content) {
		if token == "\n" {
			emit(true)
			continue
		}
		blank := strings.TrimSpace(token) == ""
		if blank && builder.Len() == 0 && wrapped {
			// leading blanks of a wrapped line
			continue
		}

		tokenWidth := face.TextWidth(token)
		if currentWidth > 0 && currentWidth+tokenWidth > limit && !blank {
			emit(false)
		}
		if tokenWidth <= limit || blank {
			appendToken(token)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, face) {
			chunkWidth := face.TextWidth(chunk)
			if currentWidth > 0 && currentWidth+chunkWidth > limit {
				emit(false)
			}
			appendToken(chunk)
		}
	}

	emit(true)
	return lines
}

// tokenize splits s into runs of blanks, runs of non-blanks and newlines.
func tokenize(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > len(string(r)) {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}

func toPt(mm float64) float64 { return mm * layout.MmToPt }

func toMm(pt float64) float64 { return pt * layout.PtToMm }
