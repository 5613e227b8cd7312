package renderer

import "github.com/canyon-trail/reportscript-sub000/layout"

// Renderer turns a paginated document into the bytes of the output file.
type Renderer interface {
	Render(doc *layout.PaginatedDocument) ([]byte, error)
}
