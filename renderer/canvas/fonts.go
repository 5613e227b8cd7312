package canvasrenderer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/canyon-trail/reportscript-sub000/fonts"
)

type fontFamilyEntry struct {
	family  *canvas.FontFamily
	hasBold bool
}

// fontFace returns a face of the named family at size points. Unknown names
// fall back to the built-in default family.
func (r *Renderer) fontFace(name string, bold bool, size float64, col color.Color, underline bool) (*canvas.FontFace, error) {
	entry, err := r.ensureFontFamily(name)
	if err != nil {
		return nil, err
	}
	style := canvas.FontRegular
	if bold && entry.hasBold {
		style = canvas.FontBold
	}
	if underline {
		return entry.family.Face(size, col, style, canvas.FontNormal, canvas.FontUnderline), nil
	}
	return entry.family.Face(size, col, style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(name string) (*fontFamilyEntry, error) {
	if name == "" {
		name = fonts.Default
	}
	key := strings.ToLower(name)

	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	entry, err := r.loadFamily(key)
	if err == nil || key == fonts.Default {
		return entry, err
	}
	fallback, fbErr := r.loadFamily(fonts.Default)
	if fbErr != nil {
		return nil, err
	}
	r.fontFamilies[key] = fallback
	return fallback, nil
}

// loadFamily must be called with fontMu held.
func (r *Renderer) loadFamily(key string) (*fontFamilyEntry, error) {
	if entry, ok := r.fontFamilies[key]; ok {
		return entry, nil
	}
	regular, bold, err := r.loadFontBytes(key)
	if err != nil {
		return nil, err
	}

	family := canvas.NewFontFamily(key)
	if err := family.LoadFont(regular, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("load font %s: %w", key, err)
	}
	entry := &fontFamilyEntry{family: family}
	if len(bold) > 0 {
		if err := family.LoadFont(bold, 0, canvas.FontBold); err != nil {
			return nil, fmt.Errorf("load bold font %s: %w", key, err)
		}
		entry.hasBold = true
	}
	r.fontFamilies[key] = entry
	return entry, nil
}

// loadFontBytes resolves configured font files first, then the built-in families.
func (r *Renderer) loadFontBytes(key string) (regular, bold []byte, err error) {
	if src, ok := r.fontSources[key]; ok {
		regular, err = r.readResource(src.Regular)
		if err != nil {
			return nil, nil, fmt.Errorf("font %s: %w", key, err)
		}
		if src.Bold.Path != "" || len(src.Bold.Bytes) > 0 {
			if bold, err = r.readResource(src.Bold); err != nil {
				return nil, nil, fmt.Errorf("bold font %s: %w", key, err)
			}
		}
		return regular, bold, nil
	}
	face, err := fonts.Load(key)
	if err != nil {
		return nil, nil, err
	}
	return face.Regular, face.Bold, nil
}

func (r *Renderer) readResource(res Resource) ([]byte, error) {
	if len(res.Bytes) > 0 {
		return res.Bytes, nil
	}
	if res.Path == "" {
		return nil, fmt.Errorf("resource has neither bytes nor path")
	}
	path := res.Path
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", res.Path, err)
	}
	return data, nil
}
