package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteDebugJSON writes the paginated document as indented JSON for
// inspecting page breaks.
func WriteDebugJSON(doc *PaginatedDocument, path string) error {
	if doc == nil {
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode debug json: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
