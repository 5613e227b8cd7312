// Package schema decodes report documents written as JSON or YAML.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canyon-trail/reportscript-sub000/binding"
	"github.com/canyon-trail/reportscript-sub000/layout"
)

// Document is the JSON shape of a report.
type Document struct {
	Layout               string            `json:"layout,omitempty"`
	PageSize             string            `json:"pageSize,omitempty"`
	Meta                 layout.Meta       `json:"meta"`
	Headers              *Block            `json:"headers,omitempty"`
	Footers              *Block            `json:"footers,omitempty"`
	Sections             []Section         `json:"sections"`
	RepeatSectionHeaders bool              `json:"repeatSectionHeaders,omitempty"`
	RepeatReportHeaders  bool              `json:"repeatReportHeaders,omitempty"`
	PageNumbers          bool              `json:"pageNumbers,omitempty"`
	SectionPageNumbers   bool              `json:"sectionPageNumbers,omitempty"`
	Timestamp            bool              `json:"timestamp,omitempty"`
	TimestampFormat      string            `json:"timestampFormat,omitempty"`
	TableGap             *float64          `json:"tableGap,omitempty"`
	Style                *layout.Style     `json:"style,omitempty"`
	Watermark            *layout.Watermark `json:"watermark,omitempty"`
	PageBreakRows        []Row             `json:"pageBreakRows,omitempty"`
}

// Block is a header, footer or section header block.
type Block struct {
	Rows    []Row         `json:"rows"`
	Columns []Column      `json:"columns,omitempty"`
	Style   *layout.Style `json:"style,omitempty"`
}

type Section struct {
	Headers   *Block            `json:"headers,omitempty"`
	Tables    []Table           `json:"tables"`
	TableGap  *float64          `json:"tableGap,omitempty"`
	Watermark *layout.Watermark `json:"watermark,omitempty"`
}

type Table struct {
	Headers []Row         `json:"headers,omitempty"`
	Rows    []Row         `json:"rows"`
	Columns []Column      `json:"columns,omitempty"`
	Style   *layout.Style `json:"style,omitempty"`
}

// Column is a column setting; Split enables the stock text splitter.
type Column struct {
	Align string `json:"align,omitempty"`
	Width string `json:"width,omitempty"`
	Split bool   `json:"split,omitempty"`
}

// Row accepts either a bare array of cells or an object with data.
type Row struct {
	Data  []Cell        `json:"data"`
	Style *layout.Style `json:"style,omitempty"`
	Image *layout.Image `json:"image,omitempty"`
}

func (r *Row) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		r.Style, r.Image = nil, nil
		return json.Unmarshal(trimmed, &r.Data)
	}
	type plain Row
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Row(p)
	return nil
}

// Cell is a scalar shorthand (string, number or null) or a cell object.
type Cell struct {
	scalar any
	object *cellObject
}

type cellObject struct {
	Text          any           `json:"text"`
	Image         *layout.Image `json:"image"`
	Chart         *layout.Chart `json:"chart"`
	Template      *string       `json:"template"`
	ColumnSpan    int           `json:"columnSpan"`
	Align         string        `json:"align"`
	VerticalAlign string        `json:"verticalAlign"`
	LineGap       *float64      `json:"lineGap"`
	Style         *layout.Style `json:"style"`
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '{' {
		c.object = &cellObject{}
		return json.Unmarshal(trimmed, c.object)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.(type) {
	case nil, string, float64:
		c.scalar = v
		return nil
	default:
		return fmt.Errorf("schema: unsupported cell value %s", b)
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.object != nil {
		return json.Marshal(c.object)
	}
	return json.Marshal(c.scalar)
}

// DecodeJSON reads a JSON document.
func DecodeJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json document: %w", err)
	}
	return &doc, nil
}

// DecodeYAML reads a YAML document with the same shape as the JSON one.
func DecodeYAML(r io.Reader) (*Document, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	return DecodeJSON(bytes.NewReader(data))
}

// Load reads a document file, choosing YAML for .yaml/.yml and JSON otherwise.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return DecodeJSON(f)
	}
}

// ToLayout converts the decoded document, interpolating text against data.
func (d *Document) ToLayout(data any) (*layout.Document, error) {
	doc := &layout.Document{
		Layout:               layout.Orientation(strings.ToLower(d.Layout)),
		PageSize:             layout.PageSize(strings.ToLower(d.PageSize)),
		RepeatSectionHeaders: d.RepeatSectionHeaders,
		RepeatReportHeaders:  d.RepeatReportHeaders,
		PageNumbers:          d.PageNumbers,
		SectionPageNumbers:   d.SectionPageNumbers,
		Timestamp:            d.Timestamp,
		TimestampFormat:      d.TimestampFormat,
		TableGap:             d.TableGap,
		Style:                d.Style,
		Watermark:            d.Watermark,
		Meta: layout.Meta{
			Title:   binding.Interpolate(d.Meta.Title, data),
			Author:  binding.Interpolate(d.Meta.Author, data),
			Subject: binding.Interpolate(d.Meta.Subject, data),
		},
	}
	switch doc.Layout {
	case "", layout.Landscape, layout.Portrait:
	default:
		return nil, fmt.Errorf("schema: unknown layout %q", d.Layout)
	}

	var err error
	if doc.Headers, err = d.Headers.toLayout(data); err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	if doc.Footers, err = d.Footers.toLayout(data); err != nil {
		return nil, fmt.Errorf("footers: %w", err)
	}
	if doc.PageBreakRows, err = rowsToLayout(d.PageBreakRows, data); err != nil {
		return nil, fmt.Errorf("pageBreakRows: %w", err)
	}
	for i, s := range d.Sections {
		ls := layout.Section{TableGap: s.TableGap, Watermark: s.Watermark}
		if ls.Headers, err = s.Headers.toLayout(data); err != nil {
			return nil, fmt.Errorf("section %d headers: %w", i, err)
		}
		for j, t := range s.Tables {
			lt := layout.Table{Columns: columnsToLayout(t.Columns), Style: t.Style}
			if lt.Headers, err = rowsToLayout(t.Headers, data); err != nil {
				return nil, fmt.Errorf("section %d table %d headers: %w", i, j, err)
			}
			if lt.Rows, err = rowsToLayout(t.Rows, data); err != nil {
				return nil, fmt.Errorf("section %d table %d: %w", i, j, err)
			}
			ls.Tables = append(ls.Tables, lt)
		}
		doc.Sections = append(doc.Sections, ls)
	}
	return doc, nil
}

func (b *Block) toLayout(data any) (*layout.HeaderFooter, error) {
	if b == nil {
		return nil, nil
	}
	rows, err := rowsToLayout(b.Rows, data)
	if err != nil {
		return nil, err
	}
	return &layout.HeaderFooter{Rows: rows, Columns: columnsToLayout(b.Columns), Style: b.Style}, nil
}

func columnsToLayout(cols []Column) []layout.ColumnSetting {
	if len(cols) == 0 {
		return nil
	}
	out := make([]layout.ColumnSetting, len(cols))
	for i, c := range cols {
		out[i] = layout.ColumnSetting{Align: layout.HAlign(c.Align), Width: c.Width}
		if c.Split {
			out[i].Split = layout.SplitText
		}
	}
	return out
}

func rowsToLayout(rows []Row, data any) ([]layout.Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]layout.Row, len(rows))
	for i, r := range rows {
		lr := layout.Row{Style: r.Style, Image: r.Image, Data: make([]any, len(r.Data))}
		for j, c := range r.Data {
			v, err := c.toLayout(data)
			if err != nil {
				return nil, fmt.Errorf("row %d cell %d: %w", i, j, err)
			}
			lr.Data[j] = v
		}
		out[i] = lr
	}
	return out, nil
}

func (c Cell) toLayout(data any) (any, error) {
	if c.object == nil {
		if s, ok := c.scalar.(string); ok {
			return binding.Interpolate(s, data), nil
		}
		return c.scalar, nil
	}

	o := c.object
	cell := layout.Cell{
		HAlign:     layout.HAlign(o.Align),
		VAlign:     layout.VAlign(o.VerticalAlign),
		ColumnSpan: o.ColumnSpan,
		LineGap:    o.LineGap,
		Style:      o.Style,
	}
	variants := 0
	if o.Text != nil {
		cell.Content = layout.Text{Value: binding.Interpolate(binding.Format(o.Text), data)}
		variants++
	}
	if o.Image != nil {
		cell.Content = *o.Image
		variants++
	}
	if o.Chart != nil {
		cell.Content = *o.Chart
		variants++
	}
	if o.Template != nil {
		tpl, err := layout.ParseTemplate(binding.Interpolate(*o.Template, data))
		if err != nil {
			return nil, err
		}
		cell.Content = layout.TemplateText{Template: tpl}
		variants++
	}
	if variants != 1 {
		return nil, fmt.Errorf("schema: a cell needs exactly one of text, image, chart or template, got %d", variants)
	}
	return cell, nil
}
