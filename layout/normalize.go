package layout

import (
	"fmt"
	"strconv"
)

// Style defaults applied beneath the document style.
const (
	DefaultFontSize = 7.0
	DefaultLineGap  = 1.5
	DefaultFont     = "regular"
)

// CellStyle is a Style with every field resolved.
type CellStyle struct {
	FontSize        float64 `json:"fontSize"`
	Font            string  `json:"font"`
	Bold            bool    `json:"bold,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Grid            bool    `json:"grid,omitempty"`
	GridColor       string  `json:"gridColor,omitempty"`
	LineGap         float64 `json:"lineGap"`
	NoWrap          bool    `json:"noWrap,omitempty"`
	Underline       bool    `json:"underline,omitempty"`
}

func defaultCellStyle() CellStyle {
	return CellStyle{FontSize: DefaultFontSize, Font: DefaultFont, LineGap: DefaultLineGap}
}

// apply returns a copy of s overridden by the set fields of o.
func (s CellStyle) apply(o *Style) CellStyle {
	if o == nil {
		return s
	}
	if o.FontSize != nil {
		s.FontSize = *o.FontSize
	}
	if o.Font != nil {
		s.Font = *o.Font
	}
	if o.Bold != nil {
		s.Bold = *o.Bold
	}
	if o.Color != nil {
		s.Color = *o.Color
	}
	if o.BackgroundColor != nil {
		s.BackgroundColor = *o.BackgroundColor
	}
	if o.Grid != nil {
		s.Grid = *o.Grid
	}
	if o.GridColor != nil {
		s.GridColor = *o.GridColor
	}
	if o.LineGap != nil {
		s.LineGap = *o.LineGap
	}
	if o.NoWrap != nil {
		s.NoWrap = *o.NoWrap
	}
	if o.Underline != nil {
		s.Underline = *o.Underline
	}
	return s
}

// NormalizedCell is a cell with alignment, span and style filled in. A nil
// Content marks an undefined cell.
type NormalizedCell struct {
	Content    CellContent `json:"content"`
	HAlign     HAlign      `json:"hAlign"`
	VAlign     VAlign      `json:"vAlign"`
	ColumnSpan int         `json:"columnSpan"`
	Style      CellStyle   `json:"style"`
}

type NormalizedRow struct {
	Cells []NormalizedCell `json:"cells"`
	Image *Image           `json:"image,omitempty"`
}

type NormalizedColumn struct {
	Align HAlign    `json:"align"`
	Width WidthSpec `json:"width"`
	Split SplitFunc `json:"-"`
}

// NormalizedTable is also used for header, footer and page break blocks,
// which never carry header rows.
type NormalizedTable struct {
	Headers []NormalizedRow    `json:"headers,omitempty"`
	Rows    []NormalizedRow    `json:"rows"`
	Columns []NormalizedColumn `json:"columns"`
}

type NormalizedSection struct {
	Headers   *NormalizedTable  `json:"headers,omitempty"`
	Tables    []NormalizedTable `json:"tables"`
	TableGap  float64           `json:"tableGap"`
	Watermark *Watermark        `json:"watermark,omitempty"`
	Index     int               `json:"index"`
}

// NormalizedDocument is the output of Normalize.
type NormalizedDocument struct {
	Layout               Orientation         `json:"layout"`
	Dimensions           Dimensions          `json:"dimensions"`
	Headers              *NormalizedTable    `json:"headers,omitempty"`
	Footers              *NormalizedTable    `json:"footers,omitempty"`
	Sections             []NormalizedSection `json:"sections"`
	PageBreakRows        *NormalizedTable    `json:"pageBreakRows,omitempty"`
	RepeatSectionHeaders bool                `json:"repeatSectionHeaders"`
	RepeatReportHeaders  bool                `json:"repeatReportHeaders"`
	TimestampFormat      string              `json:"timestampFormat"`
	Watermark            *Watermark          `json:"watermark,omitempty"`
	Meta                 Meta                `json:"meta"`
}

// Normalize validates doc and fills every default. doc is not modified.
func Normalize(doc *Document) (*NormalizedDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: document is nil")
	}
	autoFooter := doc.PageNumbers || doc.SectionPageNumbers || doc.Timestamp
	if doc.Footers != nil && autoFooter {
		return nil, ErrConflictingFooterConfig
	}
	if doc.PageNumbers && doc.SectionPageNumbers {
		return nil, ErrConflictingPageNumberConfig
	}

	orientation := doc.Layout
	if orientation == "" {
		orientation = Landscape
	}
	base := defaultCellStyle().apply(doc.Style)
	nd := &NormalizedDocument{
		Layout:               orientation,
		Dimensions:           PageDimensions(doc.PageSize, orientation),
		RepeatSectionHeaders: doc.RepeatSectionHeaders,
		RepeatReportHeaders:  doc.RepeatReportHeaders,
		TimestampFormat:      doc.TimestampFormat,
		Watermark:            doc.Watermark,
		Meta:                 doc.Meta,
	}
	if nd.TimestampFormat == "" {
		nd.TimestampFormat = DefaultTimestampFormat
	}

	var err error
	if doc.Headers != nil {
		if nd.Headers, err = normalizeBlock(doc.Headers, base); err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
	}
	footers := doc.Footers
	if autoFooter {
		footers = automaticFooter(doc)
	}
	if footers != nil {
		if nd.Footers, err = normalizeBlock(footers, base); err != nil {
			return nil, fmt.Errorf("footers: %w", err)
		}
	}
	if len(doc.PageBreakRows) > 0 {
		block := &HeaderFooter{Rows: doc.PageBreakRows}
		if nd.PageBreakRows, err = normalizeBlock(block, base); err != nil {
			return nil, fmt.Errorf("page break rows: %w", err)
		}
	}

	defaultGap := Margin
	if doc.TableGap != nil {
		defaultGap = *doc.TableGap
	}
	nd.Sections = make([]NormalizedSection, 0, len(doc.Sections))
	for i, s := range doc.Sections {
		ns := NormalizedSection{
			TableGap:  defaultGap,
			Watermark: doc.Watermark,
			Index:     i,
		}
		if s.TableGap != nil {
			ns.TableGap = *s.TableGap
		}
		if s.Watermark != nil {
			ns.Watermark = s.Watermark
		}
		if s.Headers != nil {
			if ns.Headers, err = normalizeBlock(s.Headers, base); err != nil {
				return nil, fmt.Errorf("section %d headers: %w", i, err)
			}
		}
		ns.Tables = make([]NormalizedTable, 0, len(s.Tables))
		for j, t := range s.Tables {
			nt, err := normalizeTable(t.Headers, t.Rows, t.Columns, base.apply(t.Style))
			if err != nil {
				return nil, fmt.Errorf("section %d table %d: %w", i, j, err)
			}
			ns.Tables = append(ns.Tables, *nt)
		}
		nd.Sections = append(nd.Sections, ns)
	}
	return nd, nil
}

// automaticFooter builds the timestamp / page number footer row.
func automaticFooter(doc *Document) *HeaderFooter {
	left := Cell{Content: Text{}}
	if doc.Timestamp {
		left.Content = TemplateText{Template: MustTemplate("{{timestamp}}")}
	}
	right := Cell{Content: Text{}}
	switch {
	case doc.PageNumbers:
		right.Content = TemplateText{Template: MustTemplate("Page {{documentPageNumber}} of {{documentPageCount}}")}
	case doc.SectionPageNumbers:
		right.Content = TemplateText{Template: MustTemplate("Page {{sectionPageNumber}} of {{sectionPageCount}}")}
	}
	return &HeaderFooter{
		Rows: []Row{{Data: []any{left, right}}},
		Columns: []ColumnSetting{
			{Align: AlignLeft, Width: "1fr"},
			{Align: AlignRight, Width: "1fr"},
		},
	}
}

func normalizeBlock(hf *HeaderFooter, base CellStyle) (*NormalizedTable, error) {
	return normalizeTable(nil, hf.Rows, hf.Columns, base.apply(hf.Style))
}

func normalizeTable(headers, rows []Row, settings []ColumnSetting, style CellStyle) (*NormalizedTable, error) {
	count := len(settings)
	if count == 0 {
		for _, r := range append(append([]Row(nil), headers...), rows...) {
			sum, err := spanSum(r)
			if err != nil {
				return nil, err
			}
			count = max(count, sum)
		}
	}

	columns := make([]NormalizedColumn, count)
	for i := range columns {
		col := NormalizedColumn{Align: AlignLeft, Width: WidthSpec{Value: 1, Unit: UnitFr}}
		if i < len(settings) {
			s := settings[i]
			if s.Align != "" {
				col.Align = s.Align
			}
			if s.Width != "" {
				w, err := ParseWidth(s.Width)
				if err != nil {
					return nil, err
				}
				col.Width = w
			}
			col.Split = s.Split
		}
		columns[i] = col
	}

	t := &NormalizedTable{Columns: columns}
	var err error
	if t.Headers, err = normalizeRows(headers, columns, style, 0); err != nil {
		return nil, err
	}
	if t.Rows, err = normalizeRows(rows, columns, style, len(headers)); err != nil {
		return nil, err
	}
	return t, nil
}

// normalizeRows numbers rows from offset so header and body rows share one
// index space in error messages.
func normalizeRows(rows []Row, columns []NormalizedColumn, style CellStyle, offset int) ([]NormalizedRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]NormalizedRow, 0, len(rows))
	for i, r := range rows {
		nr, err := normalizeRow(r, columns, style.apply(r.Style))
		if err != nil {
			return nil, err
		}
		sum := 0
		for _, c := range nr.Cells {
			sum += c.ColumnSpan
		}
		// an image-only row spans the table on its own
		imageOnly := len(nr.Cells) == 0 && nr.Image != nil
		if !imageOnly && sum != len(columns) {
			return nil, &ColumnSpanMismatchError{Row: offset + i, SpanSum: sum, Columns: len(columns)}
		}
		out = append(out, nr)
	}
	return out, nil
}

func normalizeRow(r Row, columns []NormalizedColumn, style CellStyle) (NormalizedRow, error) {
	nr := NormalizedRow{Image: r.Image}
	if len(r.Data) > 0 {
		nr.Cells = make([]NormalizedCell, 0, len(r.Data))
	}
	col := 0
	for _, v := range r.Data {
		c, err := toCell(v)
		if err != nil {
			return NormalizedRow{}, err
		}
		nc := NormalizedCell{
			Content:    c.Content,
			HAlign:     AlignLeft,
			VAlign:     AlignTop,
			ColumnSpan: c.ColumnSpan,
			Style:      style.apply(c.Style),
		}
		if col < len(columns) {
			nc.HAlign = columns[col].Align
		}
		if c.HAlign != "" {
			nc.HAlign = c.HAlign
		}
		if c.VAlign != "" {
			nc.VAlign = c.VAlign
		}
		if c.LineGap != nil {
			nc.Style.LineGap = *c.LineGap
		}
		nr.Cells = append(nr.Cells, nc)
		col += nc.ColumnSpan
	}
	return nr, nil
}

func spanSum(r Row) (int, error) {
	sum := 0
	for _, v := range r.Data {
		c, err := toCell(v)
		if err != nil {
			return 0, err
		}
		sum += c.ColumnSpan
	}
	return sum, nil
}

// toCell expands row shorthand into a Cell with a positive span.
func toCell(v any) (Cell, error) {
	var c Cell
	switch val := v.(type) {
	case nil:
	case Cell:
		c = val
	case *Cell:
		if val != nil {
			c = *val
		}
	case string:
		c.Content = Text{Value: val}
	case CellContent:
		c.Content = val
	case float64:
		c.Content = Text{Value: strconv.FormatFloat(val, 'f', -1, 64)}
	case float32:
		c.Content = Text{Value: strconv.FormatFloat(float64(val), 'f', -1, 32)}
	case int:
		c.Content = Text{Value: strconv.Itoa(val)}
	case int64:
		c.Content = Text{Value: strconv.FormatInt(val, 10)}
	case int32:
		c.Content = Text{Value: strconv.FormatInt(int64(val), 10)}
	case uint:
		c.Content = Text{Value: strconv.FormatUint(uint64(val), 10)}
	case uint64:
		c.Content = Text{Value: strconv.FormatUint(val, 10)}
	case uint32:
		c.Content = Text{Value: strconv.FormatUint(uint64(val), 10)}
	default:
		return Cell{}, fmt.Errorf("%w: %T", ErrUnknownCellContent, v)
	}

	content, err := derefContent(c.Content)
	if err != nil {
		return Cell{}, err
	}
	c.Content = content
	switch {
	case c.ColumnSpan == 0:
		c.ColumnSpan = 1
	case c.ColumnSpan < 0:
		return Cell{}, fmt.Errorf("layout: invalid column span %d", c.ColumnSpan)
	}
	return c, nil
}

// derefContent turns pointer variants into values; nil pointers become
// undefined content.
func derefContent(c CellContent) (CellContent, error) {
	switch v := c.(type) {
	case nil, Text, Image, Chart, TemplateText:
		return v, nil
	case *Text:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *Image:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *Chart:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *TemplateText:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCellContent, c)
	}
}
