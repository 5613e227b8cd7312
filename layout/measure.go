package layout

import (
	"fmt"
	"math"
	"strings"
)

// RowKind tells the renderer and the debug output where a row came from.
type RowKind string

const (
	RowData           RowKind = "data"
	RowHeader         RowKind = "header"
	RowSectionHeader  RowKind = "sectionHeader"
	RowDocumentHeader RowKind = "documentHeader"
	RowFooter         RowKind = "footer"
	RowPageBreak      RowKind = "pageBreak"
	RowGap            RowKind = "gap"
	RowSpacer         RowKind = "spacer"
)

// MeasuredCell is a normalized cell with its resolved width and height range.
// A nil MaxHeight marks an expandable cell.
type MeasuredCell struct {
	NormalizedCell
	Width     float64   `json:"width"`
	MinHeight float64   `json:"minHeight"`
	MaxHeight *float64  `json:"maxHeight,omitempty"`
	Split     SplitFunc `json:"-"`
}

// MeasuredRow is a row with the aggregated height range of its cells.
type MeasuredRow struct {
	Kind      RowKind        `json:"kind"`
	Cells     []MeasuredCell `json:"cells,omitempty"`
	Image     *Image         `json:"image,omitempty"`
	MinHeight float64        `json:"minHeight"`
	MaxHeight *float64       `json:"maxHeight,omitempty"`
}

// Height is the row's fixed height, or its minimum while still expandable.
func (r MeasuredRow) Height() float64 {
	if r.MaxHeight != nil {
		return *r.MaxHeight
	}
	return r.MinHeight
}

func (r MeasuredRow) expandable() bool { return r.MaxHeight == nil }

func fixedRow(kind RowKind, height float64) MeasuredRow {
	return MeasuredRow{Kind: kind, MinHeight: height, MaxHeight: Ptr(height)}
}

func rowsHeight(rows []MeasuredRow) float64 {
	h := 0.0
	for _, r := range rows {
		h += r.Height()
	}
	return h
}

type MeasuredTable struct {
	Headers []MeasuredRow `json:"headers,omitempty"`
	Rows    []MeasuredRow `json:"rows"`
	Widths  []float64     `json:"widths"`
}

func (t MeasuredTable) height() float64 {
	return rowsHeight(t.Headers) + rowsHeight(t.Rows)
}

type MeasuredSection struct {
	Headers   []MeasuredRow   `json:"headers,omitempty"`
	Tables    []MeasuredTable `json:"tables"`
	TableGap  float64         `json:"tableGap"`
	Watermark *Watermark      `json:"watermark,omitempty"`
	Index     int             `json:"index"`
}

// height includes the gap after the section headers and between tables.
func (s MeasuredSection) height() float64 {
	h := rowsHeight(s.Headers)
	if len(s.Headers) > 0 && len(s.Tables) > 0 {
		h += s.TableGap
	}
	for i, t := range s.Tables {
		if i > 0 {
			h += s.TableGap
		}
		h += t.height()
	}
	return h
}

// MeasuredDocument is the output of Measure.
type MeasuredDocument struct {
	Layout               Orientation       `json:"layout"`
	Dimensions           Dimensions        `json:"dimensions"`
	Headers              []MeasuredRow     `json:"headers,omitempty"`
	Footers              []MeasuredRow     `json:"footers,omitempty"`
	Sections             []MeasuredSection `json:"sections"`
	PageBreakRows        []MeasuredRow     `json:"pageBreakRows,omitempty"`
	RepeatSectionHeaders bool              `json:"repeatSectionHeaders"`
	RepeatReportHeaders  bool              `json:"repeatReportHeaders"`
	TimestampFormat      string            `json:"timestampFormat"`
	Watermark            *Watermark        `json:"watermark,omitempty"`
	Meta                 Meta              `json:"meta"`

	cells *cellMeasurer
}

// Measure computes the height range of every cell and row of doc.
func Measure(doc *NormalizedDocument, m TextMeasurer) (*MeasuredDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: normalized document is nil")
	}
	if m == nil {
		return nil, fmt.Errorf("layout: missing text measurer")
	}
	cm := &cellMeasurer{
		measurer: m,
		worst:    worstCaseVars(doc.TimestampFormat),
	}
	md := &MeasuredDocument{
		Layout:               doc.Layout,
		Dimensions:           doc.Dimensions,
		RepeatSectionHeaders: doc.RepeatSectionHeaders,
		RepeatReportHeaders:  doc.RepeatReportHeaders,
		TimestampFormat:      doc.TimestampFormat,
		Watermark:            doc.Watermark,
		Meta:                 doc.Meta,
		cells:                cm,
	}
	width := doc.Dimensions.InnerWidth()

	var err error
	if md.Headers, err = cm.measureBlock(doc.Headers, RowDocumentHeader, width); err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	if md.Footers, err = cm.measureBlock(doc.Footers, RowFooter, width); err != nil {
		return nil, fmt.Errorf("footers: %w", err)
	}
	if md.PageBreakRows, err = cm.measureBlock(doc.PageBreakRows, RowPageBreak, width); err != nil {
		return nil, fmt.Errorf("page break rows: %w", err)
	}

	md.Sections = make([]MeasuredSection, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		ms := MeasuredSection{
			TableGap:  s.TableGap,
			Watermark: s.Watermark,
			Index:     s.Index,
		}
		if ms.Headers, err = cm.measureBlock(s.Headers, RowSectionHeader, width); err != nil {
			return nil, fmt.Errorf("section %d headers: %w", s.Index, err)
		}
		for j, t := range s.Tables {
			mt, err := cm.measureTable(t, width)
			if err != nil {
				return nil, fmt.Errorf("section %d table %d: %w", s.Index, j, err)
			}
			ms.Tables = append(ms.Tables, mt)
		}
		md.Sections = append(md.Sections, ms)
	}
	return md, nil
}

type cellMeasurer struct {
	measurer TextMeasurer
	worst    TemplateVars
}

func (cm *cellMeasurer) measureBlock(t *NormalizedTable, kind RowKind, width float64) ([]MeasuredRow, error) {
	if t == nil {
		return nil, nil
	}
	widths, err := columnWidths(t.Columns, width)
	if err != nil {
		return nil, err
	}
	return cm.measureRows(t.Rows, kind, t.Columns, widths, 0)
}

func (cm *cellMeasurer) measureTable(t NormalizedTable, width float64) (MeasuredTable, error) {
	widths, err := columnWidths(t.Columns, width)
	if err != nil {
		return MeasuredTable{}, err
	}
	mt := MeasuredTable{Widths: widths}
	if mt.Headers, err = cm.measureRows(t.Headers, RowHeader, t.Columns, widths, 0); err != nil {
		return MeasuredTable{}, err
	}
	if mt.Rows, err = cm.measureRows(t.Rows, RowData, t.Columns, widths, len(t.Headers)); err != nil {
		return MeasuredTable{}, err
	}
	return mt, nil
}

func columnWidths(columns []NormalizedColumn, available float64) ([]float64, error) {
	specs := make([]WidthSpec, len(columns))
	for i, c := range columns {
		specs[i] = c.Width
	}
	return ResolveColumnWidths(specs, available)
}

func (cm *cellMeasurer) measureRows(rows []NormalizedRow, kind RowKind, columns []NormalizedColumn, widths []float64, offset int) ([]MeasuredRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]MeasuredRow, 0, len(rows))
	for i, r := range rows {
		mr := MeasuredRow{Kind: kind, Image: r.Image}
		col := 0
		for j, c := range r.Cells {
			if c.Content == nil {
				return nil, &UndefinedCellError{Row: offset + i, Column: j}
			}
			mc := MeasuredCell{NormalizedCell: c}
			for k := col; k < col+c.ColumnSpan && k < len(widths); k++ {
				mc.Width += widths[k]
			}
			if col < len(columns) {
				mc.Split = columns[col].Split
			}
			col += c.ColumnSpan
			mr.Cells = append(mr.Cells, mc)
		}
		measured, err := cm.measureRow(mr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", offset+i, err)
		}
		out = append(out, measured)
	}
	return out, nil
}

// measureRow recomputes every cell height of r and aggregates them. Cells
// are measured in order; r is not modified.
func (cm *cellMeasurer) measureRow(r MeasuredRow) (MeasuredRow, error) {
	out := r
	out.Cells = make([]MeasuredCell, len(r.Cells))
	out.MinHeight = 0
	maxHeight := 0.0
	expandable := false
	for i, c := range r.Cells {
		mc, err := cm.measureCell(c)
		if err != nil {
			return MeasuredRow{}, err
		}
		out.Cells[i] = mc
		out.MinHeight = math.Max(out.MinHeight, mc.MinHeight)
		if mc.MaxHeight == nil {
			expandable = true
		} else {
			maxHeight = math.Max(maxHeight, *mc.MaxHeight)
		}
	}
	if r.Image != nil {
		out.MinHeight += r.Image.Height
		maxHeight += r.Image.Height
	}
	out.MaxHeight = nil
	if !expandable {
		out.MaxHeight = Ptr(maxHeight)
	}
	return out, nil
}

func (cm *cellMeasurer) measureCell(c MeasuredCell) (MeasuredCell, error) {
	gap := c.Style.LineGap
	switch content := c.Content.(type) {
	case Text:
		h, err := cm.textHeight(content.Value, c)
		if err != nil {
			return MeasuredCell{}, err
		}
		c.MinHeight, c.MaxHeight = h+gap, Ptr(h+gap)
	case TemplateText:
		if content.Template == nil {
			return MeasuredCell{}, fmt.Errorf("%w: template without renderer", ErrUnknownCellContent)
		}
		h, err := cm.textHeight(content.Template(cm.worst), c)
		if err != nil {
			return MeasuredCell{}, err
		}
		c.MinHeight, c.MaxHeight = h+gap, Ptr(h+gap)
	case Image:
		c.MinHeight, c.MaxHeight = content.Height+gap, Ptr(content.Height+gap)
	case Chart:
		c.MinHeight = content.MinHeight + gap
		c.MaxHeight = nil
		if content.MaxHeight != nil {
			c.MaxHeight = Ptr(*content.MaxHeight + gap)
		}
	case nil:
		return MeasuredCell{}, &UndefinedCellError{Row: -1, Column: -1}
	default:
		return MeasuredCell{}, fmt.Errorf("%w: %T", ErrUnknownCellContent, content)
	}
	return c, nil
}

// textHeight measures text inside the padded cell width, without line gap.
func (cm *cellMeasurer) textHeight(text string, c MeasuredCell) (float64, error) {
	width := math.Max(c.Width-2*TextHPadding, 0)
	if c.Style.NoWrap {
		// a single line, truncated when drawn
		text, _, _ = strings.Cut(text, "\n")
		width = math.MaxFloat64
	}
	h, err := cm.measurer.MeasureTextHeight(text, width, textOptions(c.Style))
	if err != nil {
		return 0, fmt.Errorf("measure text: %w", err)
	}
	return h, nil
}

// measureFunc binds the text measurement of cell c for a SplitFunc.
func (cm *cellMeasurer) measureFunc(c MeasuredCell) MeasureFunc {
	return func(text string) (float64, error) {
		return cm.textHeight(text, c)
	}
}
