// Package fonts provides the built-in font faces used when no font files are
// configured.
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Face names a built-in TTF.
type Face struct {
	Regular []byte
	Bold    []byte
}

var builtin = map[string]Face{
	"regular": {Regular: goregular.TTF, Bold: gobold.TTF},
	"mono":    {Regular: gomono.TTF, Bold: gomonobold.TTF},
}

// Default is the family used when a cell names no font.
const Default = "regular"

// Load returns the built-in family called name. The "embed:" prefix is accepted.
func Load(name string) (Face, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	f, ok := builtin[key]
	if !ok {
		return Face{}, fmt.Errorf("unknown built-in font %q", name)
	}
	return f, nil
}

// Names lists the built-in families.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
