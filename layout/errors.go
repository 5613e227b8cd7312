package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for mutually exclusive document settings.
var (
	ErrConflictingFooterConfig     = errors.New("layout: a document cannot define custom footers together with page numbers or a timestamp")
	ErrConflictingPageNumberConfig = errors.New("layout: a document cannot use both document and section page numbers")
	ErrUnknownCellContent          = errors.New("layout: unknown cell content")
)

// InvalidWidthError reports a column width string that does not parse.
type InvalidWidthError struct {
	Raw string
}

func (e *InvalidWidthError) Error() string {
	return "Invalid width input " + e.Raw
}

// WidthOverflowError reports column widths that do not fit the available width.
type WidthOverflowError struct {
	Columns []WidthSpec
}

func (e *WidthOverflowError) Error() string {
	parts := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		parts[i] = c.String()
	}
	return fmt.Sprintf("Column widths %s exceeds page width", strings.Join(parts, ", "))
}

// ColumnSpanMismatchError reports a row whose cell spans do not add up to the
// table's column count.
type ColumnSpanMismatchError struct {
	Row     int
	SpanSum int
	Columns int
}

func (e *ColumnSpanMismatchError) Error() string {
	dir := "is less than"
	if e.SpanSum > e.Columns {
		dir = "exceeds"
	}
	return fmt.Sprintf("row %d: column span sum %d %s table column count %d", e.Row, e.SpanSum, dir, e.Columns)
}

// UndefinedCellError reports a nil cell found during measurement.
type UndefinedCellError struct {
	Row    int
	Column int
}

func (e *UndefinedCellError) Error() string {
	return fmt.Sprintf("cannot measure undefined cell at row %d, column %d", e.Row, e.Column)
}

// UnsplittableContentError reports content that would have to be split across
// pages but cannot be.
type UnsplittableContentError struct {
	Reason string
}

func (e *UnsplittableContentError) Error() string {
	return "cannot split " + e.Reason
}

// InvalidTemplateVariableError reports a template placeholder outside the
// supported variable set.
type InvalidTemplateVariableError struct {
	Name string
}

func (e *InvalidTemplateVariableError) Error() string {
	return fmt.Sprintf("invalid template variable %q, expected one of %s", e.Name, strings.Join(templateVariableNames, ", "))
}
