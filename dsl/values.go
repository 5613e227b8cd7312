package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canyon-trail/reportscript-sub000/binding"
	"github.com/canyon-trail/reportscript-sub000/layout"
)

// attrs are the inline arguments of a command, eg: `cell span 2 bold right`.
type attrs struct {
	strings    []string // interpolated string arguments
	positional []string // bare numbers such as column widths
	style      *layout.Style
	span       int
	hAlign     layout.HAlign
	vAlign     layout.VAlign
	split      bool
	numbers    map[string]float64
}

var numericAttrs = map[string]bool{
	"width": true, "height": true, "minHeight": true, "maxHeight": true, "opacity": true,
}

func parseAttrs(args []*Lexeme, sc scope) (attrs, error) {
	a := attrs{numbers: map[string]float64{}}
	for i := 0; i < len(args); i++ {
		l := args[i]
		switch l.Type {
		case "String":
			a.strings = append(a.strings, sc.text(l.Value))
			continue
		case "Number":
			v := l.Value
			// "1.5 fr" lexes as a number followed by its unit
			if i+1 < len(args) && args[i+1].Type == "Ident" && isUnit(args[i+1].Value) {
				v += " " + args[i+1].Value
				i++
			}
			a.positional = append(a.positional, v)
			continue
		}

		key := l.Value
		switch key {
		case "left", "center", "right":
			a.hAlign = layout.HAlign(key)
			continue
		case "top", "middle", "bottom":
			a.vAlign = layout.VAlign(key)
			continue
		case "split":
			a.split = true
			continue
		case "bold", "grid", "nowrap", "noWrap", "underline":
			if _, err := setStyle(&a.style, key, "true"); err != nil {
				return a, err
			}
			continue
		}

		if i+1 >= len(args) {
			return a, fmt.Errorf("%s: missing value for %q", l.Pos, key)
		}
		i++
		raw := args[i].Value
		switch {
		case key == "span":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return a, fmt.Errorf("%s: invalid span %q", l.Pos, raw)
			}
			a.span = n
		case key == "align":
			a.hAlign = layout.HAlign(raw)
		case key == "valign":
			a.vAlign = layout.VAlign(raw)
		case numericAttrs[key]:
			n, err := parseLength(raw)
			if err != nil {
				return a, fmt.Errorf("%s: %s: %w", l.Pos, key, err)
			}
			a.numbers[key] = n
		default:
			ok, err := setStyle(&a.style, key, raw)
			if err != nil {
				return a, fmt.Errorf("%s: %s: %w", l.Pos, key, err)
			}
			if !ok {
				return a, fmt.Errorf("%s: unknown attribute %q", l.Pos, key)
			}
		}
	}
	return a, nil
}

func isUnit(s string) bool {
	return s == "fr" || s == "pt"
}

// setStyle sets the style property named key. It reports false for keys
// that are not style properties.
func setStyle(st **layout.Style, key, raw string) (bool, error) {
	s := &layout.Style{}
	if *st != nil {
		copied := **st
		s = &copied
	}
	switch key {
	case "size", "fontSize":
		n, err := parseLength(raw)
		if err != nil {
			return true, err
		}
		s.FontSize = &n
	case "font":
		s.Font = &raw
	case "color":
		s.Color = &raw
	case "background", "backgroundColor":
		s.BackgroundColor = &raw
	case "gridColor":
		s.GridColor = &raw
	case "lineGap":
		n, err := parseLength(raw)
		if err != nil {
			return true, err
		}
		s.LineGap = &n
	case "bold", "grid", "nowrap", "noWrap", "underline":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return true, err
		}
		switch key {
		case "bold":
			s.Bold = &b
		case "grid":
			s.Grid = &b
		case "underline":
			s.Underline = &b
		default:
			s.NoWrap = &b
		}
	default:
		return false, nil
	}
	*st = s
	return true, nil
}

// parseLength reads "12", "12pt" or "4.2mm" as points.
func parseLength(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	scale := 1.0
	switch {
	case strings.HasSuffix(raw, "pt"):
		raw = strings.TrimSuffix(raw, "pt")
	case strings.HasSuffix(raw, "mm"):
		raw = strings.TrimSuffix(raw, "mm")
		scale = layout.MmToPt
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", raw)
	}
	return v * scale, nil
}

func (sc scope) valueString(v *Value) string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return sc.text(string(*v.String))
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Bool != nil:
		return strconv.FormatBool(bool(*v.Bool))
	case v.Path != nil:
		return v.Path.String()
	default:
		return binding.Format(sc.valueAny(v))
	}
}

// valueAny converts a value for opaque chart configuration. Paths resolve
// against the bound data when it holds them.
func (sc scope) valueAny(v *Value) any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return sc.text(string(*v.String))
	case v.Number != nil:
		if f, err := strconv.ParseFloat(*v.Number, 64); err == nil {
			return f
		}
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Array != nil:
		list := make([]any, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			list = append(list, sc.valueAny(item))
		}
		return list
	case v.Object != nil:
		obj := make(map[string]any, len(v.Object.Entries))
		for _, e := range v.Object.Entries {
			obj[e.Key] = sc.valueAny(e.Value)
		}
		return obj
	case v.Bool != nil:
		return bool(*v.Bool)
	case v.Path != nil:
		raw := v.Path.String()
		if val, ok := binding.Lookup(sc.data, raw); ok && sc.data != nil {
			return val
		}
		return raw
	}
	return nil
}

func joinRaw(parts []*Lexeme) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Raw)
	}
	return b.String()
}
