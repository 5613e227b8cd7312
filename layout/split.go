package layout

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Continuation markers surrounding a page break inside a text cell.
const (
	ContinuedOnNextPage       = "(continued on next page)"
	ContinuedFromPreviousPage = "(continued from previous page)"
)

// MeasureFunc reports the height of text in the cell being split.
type MeasureFunc func(text string) (float64, error)

// SplitFunc breaks text so that fits, measured with measure, stays within
// available. An empty fits means nothing fits.
type SplitFunc func(text string, measure MeasureFunc, available float64) (fits, continues string, err error)

// SplitText is the stock SplitFunc. It cuts at the last fitting line break,
// then at a word boundary of the first line, then at a character boundary.
// A leading ContinuedFromPreviousPage marker is carried over to fits and
// never counts as content, so every split consumes part of the text.
func SplitText(text string, measure MeasureFunc, available float64) (string, string, error) {
	whole, err := measure(text)
	if err != nil {
		return "", "", err
	}
	if whole <= available {
		return text, "", nil
	}

	head, body := "", text
	if marker := ContinuedFromPreviousPage + "\n"; strings.HasPrefix(text, marker) {
		head, body = marker, text[len(marker):]
	}
	fitsWith := func(prefix string) (bool, error) {
		h, err := measure(head + prefix + "\n" + ContinuedOnNextPage)
		if err != nil {
			return false, err
		}
		return h <= available, nil
	}
	continued := func(fits, rest string) (string, string, error) {
		return head + fits + "\n" + ContinuedOnNextPage, ContinuedFromPreviousPage + "\n" + rest, nil
	}

	lines := strings.Split(body, "\n")
	for n := len(lines) - 1; n >= 1; n-- {
		prefix := strings.Join(lines[:n], "\n")
		ok, err := fitsWith(prefix)
		if err != nil {
			return "", "", err
		}
		if ok {
			return continued(prefix, strings.Join(lines[n:], "\n"))
		}
	}

	first := lines[0]
	tail := ""
	if len(lines) > 1 {
		tail = "\n" + strings.Join(lines[1:], "\n")
	}

	for i := strings.LastIndexByte(first, ' '); i > 0; i = strings.LastIndexByte(first[:i], ' ') {
		ok, err := fitsWith(first[:i])
		if err != nil {
			return "", "", err
		}
		if ok {
			return continued(first[:i], first[i+1:]+tail)
		}
	}

	cut, err := hardCut(first, fitsWith)
	if err != nil {
		return "", "", err
	}
	if cut == 0 {
		return "", text, nil
	}
	return continued(first[:cut], first[cut:]+tail)
}

// hardCut returns the longest prefix length of s, ending on a normalization
// boundary, that fits. Zero means no prefix fits.
func hardCut(s string, fitsWith func(string) (bool, error)) (int, error) {
	var bounds []int
	for i := 0; i < len(s); {
		n := norm.NFC.NextBoundaryInString(s[i:], true)
		if n <= 0 {
			break
		}
		i += n
		bounds = append(bounds, i)
	}

	lo, hi := 0, len(bounds)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		ok, err := fitsWith(s[:bounds[mid-1]])
		if err != nil {
			return 0, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	// measured heights are not strictly monotonic in the prefix length
	for ; lo > 0; lo-- {
		ok, err := fitsWith(s[:bounds[lo-1]])
		if err != nil {
			return 0, err
		}
		if ok {
			return bounds[lo-1], nil
		}
	}
	return 0, nil
}

func cellHeight(c MeasuredCell) float64 {
	if c.MaxHeight != nil {
		return *c.MaxHeight
	}
	return c.MinHeight
}

// splitRow breaks r so that the first half fits space. ok is false when the
// row has to move to the next page whole.
func (cm *cellMeasurer) splitRow(r MeasuredRow, space float64) (first, rest MeasuredRow, ok bool, err error) {
	tallest := -1
	for i, c := range r.Cells {
		if tallest < 0 || cellHeight(c) > cellHeight(r.Cells[tallest]) {
			tallest = i
		}
	}
	if tallest < 0 || r.Cells[tallest].Split == nil {
		return MeasuredRow{}, MeasuredRow{}, false, nil
	}
	if r.Image != nil {
		return MeasuredRow{}, MeasuredRow{}, false, &UnsplittableContentError{Reason: "a row containing an image"}
	}
	for _, c := range r.Cells {
		if _, isChart := c.Content.(Chart); isChart {
			return MeasuredRow{}, MeasuredRow{}, false, &UnsplittableContentError{Reason: "a row containing a chart"}
		}
	}

	first, rest = r, r
	first.Cells = slices.Clone(r.Cells)
	rest.Cells = slices.Clone(r.Cells)
	for i, c := range r.Cells {
		if cellHeight(c) <= space {
			rest.Cells[i].Content = Text{}
			continue
		}
		text, isText := c.Content.(Text)
		if !isText || c.Split == nil {
			return MeasuredRow{}, MeasuredRow{}, false, nil
		}
		fits, continues, err := c.Split(text.Value, cm.measureFunc(c), space-c.Style.LineGap)
		if err != nil {
			return MeasuredRow{}, MeasuredRow{}, false, fmt.Errorf("split text: %w", err)
		}
		if fits == "" {
			return MeasuredRow{}, MeasuredRow{}, false, nil
		}
		if continues == text.Value {
			return MeasuredRow{}, MeasuredRow{}, false, &UnsplittableContentError{Reason: fmt.Sprintf("text in column %d: split made no progress", i)}
		}
		first.Cells[i].Content = Text{Value: fits}
		rest.Cells[i].Content = Text{Value: continues}
	}

	if first, err = cm.measureRow(first); err != nil {
		return MeasuredRow{}, MeasuredRow{}, false, err
	}
	if first.Height() > space+1e-9 {
		return MeasuredRow{}, MeasuredRow{}, false, &UnsplittableContentError{Reason: fmt.Sprintf("text: split half is %gpt tall with %gpt available", first.Height(), space)}
	}
	if rest, err = cm.measureRow(rest); err != nil {
		return MeasuredRow{}, MeasuredRow{}, false, err
	}
	return first, rest, true, nil
}
