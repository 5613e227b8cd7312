package layout

import (
	"fmt"
	"slices"
	"time"
)

// Paginate distributes the measured sections over pages, splitting sections,
// tables and rows where needed, then resolves the template cells with created
// as the document timestamp.
func Paginate(doc *MeasuredDocument, created time.Time) (*PaginatedDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: measured document is nil")
	}
	cells := doc.cells
	if cells == nil {
		return nil, fmt.Errorf("layout: document was not produced by Measure")
	}
	p := &paginator{
		doc:       doc,
		cells:     cells,
		remaining: slices.Clone(doc.Sections),
	}
	for len(p.remaining) > 0 {
		s := p.remaining[0]
		p.remaining = p.remaining[1:]
		if err := p.place(s); err != nil {
			return nil, err
		}
	}
	if len(p.pages) == 0 {
		p.pages = []Page{{Watermark: doc.Watermark}}
	}

	return &PaginatedDocument{
		Layout:     doc.Layout,
		Dimensions: doc.Dimensions,
		Pages:      resolvePages(doc, p.pages, created),
		Watermark:  doc.Watermark,
		Meta:       doc.Meta,
	}, nil
}

// paginator is the working state of one Paginate call.
type paginator struct {
	doc       *MeasuredDocument
	cells     *cellMeasurer
	remaining []MeasuredSection
	pages     []Page
}

func (p *paginator) headerSpace(page int) float64 {
	if page == 0 || p.doc.RepeatReportHeaders {
		return rowsHeight(p.doc.Headers)
	}
	return 0
}

// bodySpace is the height left for section content on an empty page.
func (p *paginator) bodySpace(page int) float64 {
	return p.doc.Dimensions.InnerHeight() - p.headerSpace(page) - rowsHeight(p.doc.Footers)
}

// place puts s on a fresh page, requeueing whatever does not fit.
func (p *paginator) place(s MeasuredSection) error {
	index := len(p.pages)
	p.pages = append(p.pages, Page{Section: s.Index, Watermark: s.Watermark})
	available := p.bodySpace(index)

	if s.height() <= available {
		p.pages[index].Rows = fillSection(s, available)
		return nil
	}

	breakRows := p.doc.PageBreakRows
	budget := available - rowsHeight(breakRows)
	first, rest, err := p.splitSection(s, budget)
	if err != nil {
		return fmt.Errorf("section %d: %w", s.Index, err)
	}
	if first == nil {
		if p.bodySpace(index+1) > available {
			// the report headers only sit on this page; retry below them
			p.remaining = slices.Insert(p.remaining, 0, s)
			return nil
		}
		return &UnsplittableContentError{Reason: fmt.Sprintf("section %d: content does not fit on an empty page", s.Index)}
	}

	rows := fillSection(*first, budget)
	if rest != nil {
		rows = append(rows, breakRows...)
		p.remaining = slices.Insert(p.remaining, 0, *rest)
	}
	p.pages[index].Rows = rows
	return nil
}

// splitSection packs whole tables into space and splits the first one that
// overflows. first is nil when no data row could be placed.
func (p *paginator) splitSection(s MeasuredSection, space float64) (first, rest *MeasuredSection, err error) {
	used := rowsHeight(s.Headers)
	if len(s.Headers) > 0 && len(s.Tables) > 0 {
		used += s.TableGap
	}
	if used > space {
		return nil, nil, nil
	}

	var placed, deferred []MeasuredTable
	for i, t := range s.Tables {
		gap := 0.0
		if len(placed) > 0 {
			gap = s.TableGap
		}
		avail := space - used - gap
		if t.height() <= avail {
			placed = append(placed, t)
			used += gap + t.height()
			continue
		}
		ft, rt, err := p.splitTable(t, avail)
		if err != nil {
			return nil, nil, fmt.Errorf("table %d: %w", i, err)
		}
		deferred = slices.Clone(s.Tables[i:])
		switch {
		case ft == nil:
		case rt == nil:
			placed = append(placed, *ft)
			deferred = deferred[1:]
		default:
			placed = append(placed, *ft)
			deferred[0] = *rt
		}
		break
	}
	if len(placed) == 0 {
		return nil, nil, nil
	}

	first = &MeasuredSection{
		Headers:   s.Headers,
		Tables:    placed,
		TableGap:  s.TableGap,
		Watermark: s.Watermark,
		Index:     s.Index,
	}
	if len(deferred) == 0 {
		return first, nil, nil
	}
	rest = &MeasuredSection{
		Tables:    deferred,
		TableGap:  s.TableGap,
		Watermark: s.Watermark,
		Index:     s.Index,
	}
	if p.doc.RepeatSectionHeaders {
		rest.Headers = s.Headers
	}
	return first, rest, nil
}

// splitTable packs whole rows and splits the first overflowing one. Both
// halves keep the table headers. first is nil when the headers would be left
// without a data row.
func (p *paginator) splitTable(t MeasuredTable, space float64) (first, rest *MeasuredTable, err error) {
	used := rowsHeight(t.Headers)
	var placed []MeasuredRow
	for i, r := range t.Rows {
		if used+r.Height() <= space {
			placed = append(placed, r)
			used += r.Height()
			continue
		}
		head, tail, ok, err := p.cells.splitRow(r, space-used)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		deferred := slices.Clone(t.Rows[i:])
		if ok {
			placed = append(placed, head)
			deferred[0] = tail
		}
		if len(placed) == 0 {
			return nil, nil, nil
		}
		first = &MeasuredTable{Headers: t.Headers, Rows: placed, Widths: t.Widths}
		rest = &MeasuredTable{Headers: t.Headers, Rows: deferred, Widths: t.Widths}
		return first, rest, nil
	}
	if used > space {
		return nil, nil, nil
	}
	return &t, nil, nil
}

// fillSection lays out the rows of a section that fits in space and hands
// the leftover space to expandable rows.
func fillSection(s MeasuredSection, space float64) []MeasuredRow {
	var rows []MeasuredRow
	rows = append(rows, s.Headers...)
	if len(s.Headers) > 0 && len(s.Tables) > 0 {
		rows = append(rows, fixedRow(RowGap, s.TableGap))
	}
	for i, t := range s.Tables {
		if i > 0 {
			rows = append(rows, fixedRow(RowGap, s.TableGap))
		}
		rows = append(rows, t.Headers...)
		rows = append(rows, t.Rows...)
	}
	return distribute(rows, space)
}

// distribute gives every expandable row an equal share of the leftover space
// and pins the result on the row and its open cells.
func distribute(rows []MeasuredRow, space float64) []MeasuredRow {
	count := 0
	for _, r := range rows {
		if r.expandable() {
			count++
		}
	}
	if count == 0 {
		return rows
	}
	leftover := max(space-rowsHeight(rows), 0)
	share := leftover / float64(count)

	out := slices.Clone(rows)
	for i, r := range out {
		if !r.expandable() {
			continue
		}
		h := r.MinHeight + share
		r.MaxHeight = Ptr(h)
		r.Cells = slices.Clone(r.Cells)
		for j := range r.Cells {
			if r.Cells[j].MaxHeight == nil {
				r.Cells[j].MaxHeight = Ptr(h)
			}
		}
		out[i] = r
	}
	return out
}
