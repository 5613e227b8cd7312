package layout

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Build runs normalize, measure and paginate over doc.
func Build(doc *Document, opts BuildOptions) (*PaginatedDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("layout: document is nil")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: missing text measurer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}

	nd, err := Normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	logger.Debug("normalized document",
		slog.String("layout", string(nd.Layout)),
		slog.Int("sections", len(nd.Sections)),
		slog.Float64("innerWidth", nd.Dimensions.InnerWidth()),
		slog.Float64("innerHeight", nd.Dimensions.InnerHeight()))

	md, err := Measure(nd, opts.Measurer)
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	rows := 0
	for _, s := range md.Sections {
		for _, t := range s.Tables {
			rows += len(t.Rows)
		}
	}
	logger.Debug("measured document", slog.Int("rows", rows))

	pd, err := Paginate(md, created)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}
	logger.Info("paginated document", slog.Int("pages", len(pd.Pages)))
	return pd, nil
}
