package layout

// This file defines the input document model and the paginated result shared
// by the renderer and the debug JSON output.

// HAlign is the horizontal alignment of a cell.
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign is the vertical alignment of a cell.
type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "middle"
	AlignBottom VAlign = "bottom"
)

// Document is the declarative description of a report.
type Document struct {
	Layout   Orientation
	PageSize PageSize
	Headers  *HeaderFooter
	Footers  *HeaderFooter
	Sections []Section

	RepeatSectionHeaders bool
	RepeatReportHeaders  bool
	PageNumbers          bool // document-wide "Page X of Y" footer
	SectionPageNumbers   bool // per-section "Page X of Y" footer
	Timestamp            bool
	TimestampFormat      string // time layout, DefaultTimestampFormat when empty

	TableGap      *float64
	Style         *Style
	Watermark     *Watermark
	PageBreakRows []Row
	Meta          Meta
}

// Meta is written to the PDF information dictionary.
type Meta struct {
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// HeaderFooter is a block of rows laid out like a table without repeated headers.
type HeaderFooter struct {
	Rows    []Row
	Columns []ColumnSetting
	Style   *Style
}

// Section groups tables that start on a fresh page.
type Section struct {
	Headers   *HeaderFooter
	Tables    []Table
	TableGap  *float64
	Watermark *Watermark
}

// Table is a list of rows with optional header rows repeated on every page
// the table spans.
type Table struct {
	Headers []Row
	Rows    []Row
	Columns []ColumnSetting
	Style   *Style
}

// Row holds cells. Data entries may be a Cell, *Cell, a CellContent value,
// a string or any Go number; nil entries are reported when measured.
type Row struct {
	Data  []any
	Style *Style
	Image *Image // drawn below the cells, spanning the whole row
}

// ColumnSetting configures one table column.
type ColumnSetting struct {
	Align HAlign
	Width string // "1fr", "25%", "120pt"; "1fr" when empty
	Split SplitFunc
}

// Cell is a single table cell.
type Cell struct {
	Content    CellContent
	HAlign     HAlign
	VAlign     VAlign
	ColumnSpan int
	LineGap    *float64
	Style      *Style
}

// CellContent is implemented by Text, Image, Chart and TemplateText only.
type CellContent interface {
	cellContent()
}

// Text is a plain text value.
type Text struct {
	Value string `json:"value"`
}

// Image is an image with declared dimensions in points.
type Image struct {
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Chart is an opaque chart box. A nil MaxHeight makes the chart expandable:
// it absorbs leftover space on its page.
type Chart struct {
	Config    any      `json:"config,omitempty"`
	MinHeight float64  `json:"minHeight"`
	MaxHeight *float64 `json:"maxHeight,omitempty"`
}

// TemplateText is text that depends on the final page layout.
type TemplateText struct {
	Template Template `json:"-"`
}

func (Text) cellContent()         {}
func (Image) cellContent()        {}
func (Chart) cellContent()        {}
func (TemplateText) cellContent() {}

// Style holds optional text and cell attributes. Unset fields inherit from
// the enclosing row, table and document, in that order.
type Style struct {
	FontSize        *float64 `json:"fontSize,omitempty"`
	Font            *string  `json:"font,omitempty"`
	Bold            *bool    `json:"bold,omitempty"`
	Color           *string  `json:"color,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	Grid            *bool    `json:"grid,omitempty"`
	GridColor       *string  `json:"gridColor,omitempty"`
	LineGap         *float64 `json:"lineGap,omitempty"`
	NoWrap          *bool    `json:"noWrap,omitempty"`
	Underline       *bool    `json:"underline,omitempty"`
}

// Watermark is drawn diagonally across a page.
type Watermark struct {
	Text     string  `json:"text"`
	Color    string  `json:"color,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Opacity  float64 `json:"opacity,omitempty"`
}

// Ptr returns a pointer to v; handy for the optional Style fields.
func Ptr[T any](v T) *T { return &v }

// PaginatedDocument is the pagination result ready for drawing.
type PaginatedDocument struct {
	Layout     Orientation `json:"layout"`
	Dimensions Dimensions  `json:"dimensions"`
	Pages      []Page      `json:"pages"`
	Watermark  *Watermark  `json:"watermark,omitempty"`
	Meta       Meta        `json:"meta"`
}

// Page is an ordered list of rows drawn top to bottom inside the margins.
type Page struct {
	Rows      []MeasuredRow `json:"rows"`
	Section   int           `json:"section"`
	Watermark *Watermark    `json:"watermark,omitempty"`
}
