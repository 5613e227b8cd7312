package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canyon-trail/reportscript-sub000/binding"
	"github.com/canyon-trail/reportscript-sub000/layout"
)

// ToDocument converts a parsed report into a layout document. String values
// are interpolated against data; `each` blocks repeat rows over lists in data.
func ToDocument(rep *Report, data any) (*layout.Document, error) {
	if rep == nil || rep.Block == nil {
		return nil, fmt.Errorf("dsl: report has no body")
	}
	sc := scope{data: data}
	doc := &layout.Document{Meta: layout.Meta{Title: sc.text(string(rep.Title))}}
	for _, p := range rep.Params {
		if err := setPage(doc, p.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", p.Pos, err)
		}
	}

	for _, st := range rep.Block.Statements {
		switch {
		case st.Assignment != nil:
			if err := sc.documentSetting(doc, st.Assignment); err != nil {
				return nil, err
			}
		case st.Command != nil:
			if err := sc.documentCommand(doc, st.Command); err != nil {
				return nil, fmt.Errorf("%s: %w", st.Command.Pos, err)
			}
		case st.Text != nil:
			return nil, fmt.Errorf("dsl: unexpected text %q at report level", string(st.Text.Value))
		}
	}
	return doc, nil
}

type scope struct {
	data any
}

func (sc scope) text(s string) string {
	return binding.Interpolate(s, sc.data)
}

func (sc scope) with(name string, value any) scope {
	return scope{data: binding.Bind(sc.data, name, value)}
}

func setPage(doc *layout.Document, v string) error {
	switch strings.ToLower(v) {
	case "landscape":
		doc.Layout = layout.Landscape
	case "portrait":
		doc.Layout = layout.Portrait
	case "letter", "legal", "a4":
		doc.PageSize = layout.PageSize(strings.ToLower(v))
	default:
		return fmt.Errorf("unknown page option %q", v)
	}
	return nil
}

func (sc scope) documentSetting(doc *layout.Document, a *Assignment) error {
	raw := sc.valueString(a.Value)
	var err error
	switch a.Key {
	case "layout", "pageSize":
		err = setPage(doc, raw)
	case "title":
		doc.Meta.Title = raw
	case "author":
		doc.Meta.Author = raw
	case "subject":
		doc.Meta.Subject = raw
	case "pageNumbers":
		doc.PageNumbers, err = strconv.ParseBool(raw)
	case "sectionPageNumbers":
		doc.SectionPageNumbers, err = strconv.ParseBool(raw)
	case "timestamp":
		doc.Timestamp, err = strconv.ParseBool(raw)
	case "timestampFormat":
		doc.TimestampFormat = raw
	case "repeatSectionHeaders":
		doc.RepeatSectionHeaders, err = strconv.ParseBool(raw)
	case "repeatReportHeaders":
		doc.RepeatReportHeaders, err = strconv.ParseBool(raw)
	case "tableGap":
		var gap float64
		gap, err = parseLength(raw)
		doc.TableGap = &gap
	default:
		var ok bool
		if ok, err = setStyle(&doc.Style, a.Key, raw); err == nil && !ok {
			err = fmt.Errorf("unknown report setting")
		}
	}
	if err != nil {
		return fmt.Errorf("dsl: %s: %w", a.Key, err)
	}
	return nil
}

func (sc scope) documentCommand(doc *layout.Document, cmd *Command) error {
	switch cmd.Name {
	case "headers":
		hf, err := sc.headerFooter(cmd)
		if err != nil {
			return err
		}
		doc.Headers = hf
	case "footers":
		hf, err := sc.headerFooter(cmd)
		if err != nil {
			return err
		}
		doc.Footers = hf
	case "pagebreak":
		hf, err := sc.headerFooter(cmd)
		if err != nil {
			return err
		}
		doc.PageBreakRows = hf.Rows
	case "watermark":
		wm, err := sc.watermark(cmd)
		if err != nil {
			return err
		}
		doc.Watermark = wm
	case "section":
		s, err := sc.section(cmd)
		if err != nil {
			return err
		}
		doc.Sections = append(doc.Sections, s)
	case "table":
		t, err := sc.table(cmd)
		if err != nil {
			return err
		}
		doc.Sections = append(doc.Sections, layout.Section{Tables: []layout.Table{t}})
	default:
		return fmt.Errorf("unknown command %q", cmd.Name)
	}
	return nil
}

func (sc scope) section(cmd *Command) (layout.Section, error) {
	var s layout.Section
	if cmd.Block == nil {
		return s, nil
	}
	for _, st := range cmd.Block.Statements {
		switch {
		case st.Assignment != nil:
			if st.Assignment.Key != "tableGap" {
				return s, fmt.Errorf("unknown section setting %q", st.Assignment.Key)
			}
			gap, err := parseLength(sc.valueString(st.Assignment.Value))
			if err != nil {
				return s, fmt.Errorf("tableGap: %w", err)
			}
			s.TableGap = &gap
		case st.Command != nil:
			c := st.Command
			switch c.Name {
			case "headers":
				hf, err := sc.headerFooter(c)
				if err != nil {
					return s, fmt.Errorf("%s: %w", c.Pos, err)
				}
				s.Headers = hf
			case "watermark":
				wm, err := sc.watermark(c)
				if err != nil {
					return s, fmt.Errorf("%s: %w", c.Pos, err)
				}
				s.Watermark = wm
			case "table":
				t, err := sc.table(c)
				if err != nil {
					return s, fmt.Errorf("%s: %w", c.Pos, err)
				}
				s.Tables = append(s.Tables, t)
			default:
				return s, fmt.Errorf("%s: unknown section command %q", c.Pos, c.Name)
			}
		case st.Text != nil:
			return s, fmt.Errorf("unexpected text %q in section", string(st.Text.Value))
		}
	}
	return s, nil
}

func (sc scope) watermark(cmd *Command) (*layout.Watermark, error) {
	a, err := parseAttrs(cmd.Args, sc)
	if err != nil {
		return nil, err
	}
	wm := &layout.Watermark{Opacity: a.numbers["opacity"]}
	if len(a.strings) > 0 {
		wm.Text = a.strings[0]
	}
	if a.style != nil {
		if a.style.Color != nil {
			wm.Color = *a.style.Color
		}
		if a.style.FontSize != nil {
			wm.FontSize = *a.style.FontSize
		}
	}
	if wm.Text == "" {
		return nil, fmt.Errorf("watermark needs a text")
	}
	return wm, nil
}

// rowSet collects the rows, columns and style of a table or block body.
type rowSet struct {
	headers []layout.Row
	rows    []layout.Row
	columns []layout.ColumnSetting
	style   *layout.Style
}

func (sc scope) headerFooter(cmd *Command) (*layout.HeaderFooter, error) {
	set := &rowSet{}
	if err := sc.collectRows(cmd.Block, set, false); err != nil {
		return nil, err
	}
	return &layout.HeaderFooter{Rows: set.rows, Columns: set.columns, Style: set.style}, nil
}

func (sc scope) table(cmd *Command) (layout.Table, error) {
	set := &rowSet{}
	if err := sc.collectRows(cmd.Block, set, true); err != nil {
		return layout.Table{}, err
	}
	return layout.Table{Headers: set.headers, Rows: set.rows, Columns: set.columns, Style: set.style}, nil
}

func (sc scope) collectRows(block *Block, set *rowSet, allowHeaders bool) error {
	if block == nil {
		return nil
	}
	for _, st := range block.Statements {
		switch {
		case st.Assignment != nil:
			ok, err := setStyle(&set.style, st.Assignment.Key, sc.valueString(st.Assignment.Value))
			if err != nil {
				return fmt.Errorf("%s: %w", st.Assignment.Key, err)
			}
			if !ok {
				return fmt.Errorf("unknown table setting %q", st.Assignment.Key)
			}
		case st.Command != nil:
			c := st.Command
			var err error
			switch c.Name {
			case "columns":
				set.columns, err = sc.columns(c)
			case "row":
				var row layout.Row
				if row, err = sc.row(c); err == nil {
					set.rows = append(set.rows, row)
				}
			case "header":
				if !allowHeaders {
					err = fmt.Errorf("header rows are only allowed in tables")
					break
				}
				var row layout.Row
				if row, err = sc.row(c); err == nil {
					set.headers = append(set.headers, row)
				}
			case "each":
				err = sc.each(c, set, allowHeaders)
			default:
				err = fmt.Errorf("unknown table command %q", c.Name)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", c.Pos, err)
			}
		case st.Text != nil:
			// a bare string is a one-cell row
			set.rows = append(set.rows, layout.Row{Data: []any{sc.text(string(st.Text.Value))}})
		}
	}
	return nil
}

// each repeats its body for every element of a list: each items as item { ... }
func (sc scope) each(cmd *Command, set *rowSet, allowHeaders bool) error {
	args := cmd.Args
	asAt := -1
	for i, a := range args {
		if a.Type == "Ident" && a.Value == "as" {
			asAt = i
		}
	}
	if asAt <= 0 || asAt != len(args)-2 {
		return fmt.Errorf("each expects `each <path> as <name>`")
	}
	path := joinRaw(args[:asAt])
	name := args[asAt+1].Value
	items, ok := binding.Items(sc.data, path)
	if !ok {
		return fmt.Errorf("each: %q is not a list", path)
	}
	for _, item := range items {
		if err := sc.with(name, item).collectRows(cmd.Block, set, allowHeaders); err != nil {
			return err
		}
	}
	return nil
}

func (sc scope) columns(cmd *Command) ([]layout.ColumnSetting, error) {
	if cmd.Block == nil {
		return nil, nil
	}
	var cols []layout.ColumnSetting
	for _, st := range cmd.Block.Statements {
		c := st.Command
		if c == nil || c.Name != "column" {
			return nil, fmt.Errorf("columns may only contain column commands")
		}
		a, err := parseAttrs(c.Args, sc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Pos, err)
		}
		col := layout.ColumnSetting{Align: a.hAlign}
		if len(a.positional) > 0 {
			col.Width = a.positional[0]
		}
		if a.split {
			col.Split = layout.SplitText
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (sc scope) row(cmd *Command) (layout.Row, error) {
	a, err := parseAttrs(cmd.Args, sc)
	if err != nil {
		return layout.Row{}, err
	}
	row := layout.Row{Style: a.style}
	// shorthand: row "a" "b" "c"
	for _, s := range a.strings {
		row.Data = append(row.Data, s)
	}
	if cmd.Block == nil {
		return row, nil
	}
	for _, st := range cmd.Block.Statements {
		switch {
		case st.Text != nil:
			row.Data = append(row.Data, sc.text(string(st.Text.Value)))
		case st.Assignment != nil:
			ok, err := setStyle(&row.Style, st.Assignment.Key, sc.valueString(st.Assignment.Value))
			if err != nil {
				return row, fmt.Errorf("%s: %w", st.Assignment.Key, err)
			}
			if !ok {
				return row, fmt.Errorf("unknown row setting %q", st.Assignment.Key)
			}
		case st.Command != nil:
			c := st.Command
			if c.Name == "rowimage" {
				img, err := sc.image(c)
				if err != nil {
					return row, fmt.Errorf("%s: %w", c.Pos, err)
				}
				row.Image = &img
				continue
			}
			cell, err := sc.cell(c)
			if err != nil {
				return row, fmt.Errorf("%s: %w", c.Pos, err)
			}
			row.Data = append(row.Data, cell)
		}
	}
	return row, nil
}

// cell converts cell, image, chart and template commands.
func (sc scope) cell(cmd *Command) (layout.Cell, error) {
	a, err := parseAttrs(cmd.Args, sc)
	if err != nil {
		return layout.Cell{}, err
	}
	cell := layout.Cell{
		HAlign:     a.hAlign,
		VAlign:     a.vAlign,
		ColumnSpan: a.span,
		Style:      a.style,
	}
	switch cmd.Name {
	case "cell":
		content, err := sc.cellBody(cmd.Block, a)
		if err != nil {
			return layout.Cell{}, err
		}
		cell.Content = content
	case "image":
		img, err := sc.image(cmd)
		if err != nil {
			return layout.Cell{}, err
		}
		cell.Content = img
	case "chart":
		cell.Content = sc.chart(cmd, a)
	case "template":
		if len(a.strings) == 0 {
			return layout.Cell{}, fmt.Errorf("template needs a text")
		}
		tpl, err := layout.ParseTemplate(a.strings[0])
		if err != nil {
			return layout.Cell{}, err
		}
		cell.Content = layout.TemplateText{Template: tpl}
	default:
		return layout.Cell{}, fmt.Errorf("unknown cell command %q", cmd.Name)
	}
	return cell, nil
}

// cellBody joins text literals with newlines, or takes a single nested
// image, chart or template command.
func (sc scope) cellBody(block *Block, a attrs) (layout.CellContent, error) {
	lines := append([]string(nil), a.strings...)
	if block != nil {
		for _, st := range block.Statements {
			switch {
			case st.Text != nil:
				lines = append(lines, sc.text(string(st.Text.Value)))
			case st.Command != nil:
				if len(block.Statements) != 1 {
					return nil, fmt.Errorf("a cell holds either text or one %s", st.Command.Name)
				}
				inner, err := sc.cell(st.Command)
				if err != nil {
					return nil, err
				}
				return inner.Content, nil
			default:
				return nil, fmt.Errorf("unexpected assignment in cell body")
			}
		}
	}
	return layout.Text{Value: strings.Join(lines, "\n")}, nil
}

func (sc scope) image(cmd *Command) (layout.Image, error) {
	a, err := parseAttrs(cmd.Args, sc)
	if err != nil {
		return layout.Image{}, err
	}
	if len(a.strings) == 0 {
		return layout.Image{}, fmt.Errorf("image needs a source")
	}
	return layout.Image{Src: a.strings[0], Width: a.numbers["width"], Height: a.numbers["height"]}, nil
}

func (sc scope) chart(cmd *Command, a attrs) layout.Chart {
	chart := layout.Chart{MinHeight: a.numbers["minHeight"]}
	if v, ok := a.numbers["maxHeight"]; ok {
		chart.MaxHeight = &v
	}
	if cmd.Block != nil {
		config := map[string]any{}
		for _, st := range cmd.Block.Statements {
			if st.Assignment != nil {
				config[st.Assignment.Key] = sc.valueAny(st.Assignment.Value)
			}
		}
		chart.Config = config
	}
	return chart
}
