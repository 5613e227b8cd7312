package layout

// ResolveColumnWidths converts width specs into point widths for the given
// available width. Percent and point widths are taken first; fr columns
// share what is left in proportion to their values.
func ResolveColumnWidths(columns []WidthSpec, available float64) ([]float64, error) {
	var percent, points, fr float64
	frColumns := 0
	for _, c := range columns {
		switch c.Unit {
		case UnitPercent:
			percent += c.Value / 100 * available
		case UnitPT:
			points += c.Value
		case UnitFr:
			fr += c.Value
			frColumns++
		}
	}

	pool := available - (points + percent)
	// fr columns need a strictly positive pool to get any width at all
	if (frColumns == 0 && pool < 0) || (frColumns > 0 && pool <= 0) {
		return nil, &WidthOverflowError{Columns: append([]WidthSpec(nil), columns...)}
	}

	widths := make([]float64, len(columns))
	for i, c := range columns {
		switch c.Unit {
		case UnitPercent:
			widths[i] = c.Value / 100 * available
		case UnitPT:
			widths[i] = c.Value
		case UnitFr:
			if fr > 0 {
				widths[i] = c.Value / fr * pool
			}
		}
	}
	return widths, nil
}
