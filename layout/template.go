package layout

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultTimestampFormat renders creation times like "3/14/2024 9:05:00 AM".
const DefaultTimestampFormat = "1/2/2006 3:04:05 PM"

// TemplateVars are the values available to templates once pagination is done.
type TemplateVars struct {
	DocumentPageNumber int
	DocumentPageCount  int
	SectionPageNumber  int
	SectionPageCount   int
	Timestamp          string
}

// Template renders text from the final page variables.
type Template func(TemplateVars) string

var templateVariableNames = []string{
	"documentPageNumber",
	"documentPageCount",
	"sectionPageNumber",
	"sectionPageCount",
	"timestamp",
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// ParseTemplate compiles text containing {{name}} placeholders. Unknown
// placeholder names are rejected here, before any layout work.
func ParseTemplate(text string) (Template, error) {
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(templateVariableNames, m[1]) {
			return nil, &InvalidTemplateVariableError{Name: m[1]}
		}
	}
	return func(vars TemplateVars) string {
		return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
			name := placeholderPattern.FindStringSubmatch(match)[1]
			return vars.lookup(name)
		})
	}, nil
}

// MustTemplate is like ParseTemplate but panics on an invalid placeholder.
func MustTemplate(text string) Template {
	t, err := ParseTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

func (v TemplateVars) lookup(name string) string {
	switch name {
	case "documentPageNumber":
		return strconv.Itoa(v.DocumentPageNumber)
	case "documentPageCount":
		return strconv.Itoa(v.DocumentPageCount)
	case "sectionPageNumber":
		return strconv.Itoa(v.SectionPageNumber)
	case "sectionPageCount":
		return strconv.Itoa(v.SectionPageCount)
	case "timestamp":
		return v.Timestamp
	}
	return ""
}

// worstCaseVars is used when measuring templates so the reserved height
// never underestimates the resolved text.
func worstCaseVars(timestampFormat string) TemplateVars {
	widest := time.Date(2000, time.December, 28, 22, 58, 58, 0, time.UTC)
	return TemplateVars{
		DocumentPageNumber: 1000,
		DocumentPageCount:  1000,
		SectionPageNumber:  1000,
		SectionPageCount:   1000,
		Timestamp:          widest.Format(timestampFormat),
	}
}

// resolvePages threads the page counters through the laid out pages,
// injects document headers and footers and rewrites every template cell.
func resolvePages(doc *MeasuredDocument, pages []Page, created time.Time) []Page {
	stamp := created.Format(doc.TimestampFormat)
	inner := doc.Dimensions.InnerHeight()
	footerHeight := rowsHeight(doc.Footers)

	out := make([]Page, len(pages))
	sectionPage := 0
	for i, page := range pages {
		if i == 0 || page.Section != pages[i-1].Section {
			sectionPage = 1
		} else {
			sectionPage++
		}
		vars := TemplateVars{
			DocumentPageNumber: i + 1,
			DocumentPageCount:  len(pages),
			SectionPageNumber:  sectionPage,
			SectionPageCount:   sectionPageCount(pages, page.Section),
			Timestamp:          stamp,
		}

		var rows []MeasuredRow
		if len(doc.Headers) > 0 && (i == 0 || doc.RepeatReportHeaders) {
			rows = append(rows, doc.Headers...)
		}
		rows = append(rows, page.Rows...)
		if len(doc.Footers) > 0 {
			// push the footer block against the bottom margin
			if spacer := inner - rowsHeight(rows) - footerHeight; spacer > 0 {
				rows = append(rows, fixedRow(RowSpacer, spacer))
			}
			rows = append(rows, doc.Footers...)
		}

		out[i] = Page{
			Rows:      resolveRows(rows, vars),
			Section:   page.Section,
			Watermark: page.Watermark,
		}
	}
	return out
}

func sectionPageCount(pages []Page, section int) int {
	n := 0
	for _, p := range pages {
		if p.Section == section {
			n++
		}
	}
	return n
}

func resolveRows(rows []MeasuredRow, vars TemplateVars) []MeasuredRow {
	out := make([]MeasuredRow, len(rows))
	for i, row := range rows {
		out[i] = row
		if !hasTemplate(row) {
			continue
		}
		cells := slices.Clone(row.Cells)
		for j, c := range cells {
			if t, ok := c.Content.(TemplateText); ok {
				cells[j].Content = Text{Value: strings.TrimRight(t.Template(vars), "\n")}
			}
		}
		out[i].Cells = cells
	}
	return out
}

func hasTemplate(row MeasuredRow) bool {
	for _, c := range row.Cells {
		if _, ok := c.Content.(TemplateText); ok {
			return true
		}
	}
	return false
}
