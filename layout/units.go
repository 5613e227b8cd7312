package layout

import (
	"regexp"
	"strconv"
	"strings"
)

// This file defines width units, page geometry and unit conversions.

// Unit is the unit of a column width specification.
type Unit int

const (
	UnitFr      Unit = iota // share of the remaining width
	UnitPercent             // percent of the available width
	UnitPT                  // absolute points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Margin is the page margin on every side, in points.
const Margin = 18.0

// TextHPadding is the horizontal padding applied to each side of text cells.
const TextHPadding = 2.0

// UnitToString returns the short suffix used in width strings.
func UnitToString(u Unit) string {
	switch u {
	case UnitFr:
		return "fr"
	case UnitPercent:
		return "%"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// WidthSpec preserves a numeric width with its unit.
type WidthSpec struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// String renders the literal value and unit, e.g. "100 %".
func (w WidthSpec) String() string {
	return strconv.FormatFloat(w.Value, 'f', -1, 64) + " " + UnitToString(w.Unit)
}

var widthPattern = regexp.MustCompile(`^(\d+|\d*\.\d+) ?(fr|%|pt)$`)

// ParseWidth parses strings such as "1fr", "25%", "120pt" or "1.5 fr".
func ParseWidth(raw string) (WidthSpec, error) {
	groups := widthPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if groups == nil {
		return WidthSpec{}, &InvalidWidthError{Raw: raw}
	}
	v, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return WidthSpec{}, &InvalidWidthError{Raw: raw}
	}
	spec := WidthSpec{Value: v}
	switch groups[2] {
	case "fr":
		spec.Unit = UnitFr
	case "%":
		spec.Unit = UnitPercent
	case "pt":
		spec.Unit = UnitPT
	}
	return spec, nil
}

// Orientation is the page orientation of a document.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// PageSize names a paper size.
type PageSize string

const (
	Letter PageSize = "letter"
	Legal  PageSize = "legal"
	A4     PageSize = "a4"
)

// portrait width/height in points
var pagePresets = map[PageSize][2]float64{
	Letter: {612, 792},
	Legal:  {612, 1008},
	A4:     {595.28, 841.89},
}

// Dimensions is the outer page size in points.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InnerWidth is the width available inside the margins.
func (d Dimensions) InnerWidth() float64 { return d.Width - 2*Margin }

// InnerHeight is the height available inside the margins.
func (d Dimensions) InnerHeight() float64 { return d.Height - 2*Margin }

// PageDimensions resolves the page size for a size and orientation.
// Unknown sizes fall back to Letter.
func PageDimensions(size PageSize, o Orientation) Dimensions {
	base, ok := pagePresets[PageSize(strings.ToLower(string(size)))]
	if !ok {
		base = pagePresets[Letter]
	}
	if o == Portrait {
		return Dimensions{Width: base[0], Height: base[1]}
	}
	return Dimensions{Width: base[1], Height: base[0]}
}
