package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/webp"

	"github.com/canyon-trail/reportscript-sub000/layout"
	"github.com/canyon-trail/reportscript-sub000/renderer"
)

const (
	gridWidth = 0.2 // mm

	defaultWatermarkColor   = "#808080"
	defaultWatermarkSize    = 60.0
	defaultWatermarkOpacity = 0.2

	// Creator is written to the PDF information dictionary.
	Creator = "reportscript"
)

// Renderer draws paginated documents via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string

	fontSources map[string]FontSource
	imageBlobs  map[string][]byte // by unique name
	charts      ChartFunc

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry

	imageMu sync.Mutex
	images  map[string]image.Image
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ layout.TextMeasurer = (*Renderer)(nil)
)

// Box is a rectangle on the page in millimetres, origin top left.
type Box struct {
	X, Y, Width, Height float64
}

// ChartFunc draws a chart cell into box. Without one, charts are drawn as
// outlined placeholders.
type ChartFunc func(ctx *canvas.Context, chart layout.Chart, box Box) error

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]FontSource // font families by the name cells refer to
	Images  map[string]Resource   // images accessible via built-in:<name>
	Charts  ChartFunc
}

// FontSource holds the regular and optional bold face of a family.
type FontSource struct {
	Regular Resource
	Bold    Resource
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontSources:  map[string]FontSource{},
		imageBlobs:   map[string][]byte{},
		charts:       opts.Charts,
		fontFamilies: map[string]*fontFamilyEntry{},
		images:       map[string]image.Image{},
	}
	for name, src := range opts.Fonts {
		if name == "" {
			continue
		}
		r.fontSources[strings.ToLower(name)] = src
	}
	for name, res := range opts.Images {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.imageBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			// a missing file surfaces when the image is drawn
			if data, _ := os.ReadFile(res.Path); len(data) > 0 {
				r.imageBlobs[name] = data
			}
		}
	}
	return r
}

// Render renders the paginated document into a PDF byte slice.
func (r *Renderer) Render(doc *layout.PaginatedDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("render: nil document")
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("render: document has no pages")
	}

	width, height := toMm(doc.Dimensions.Width), toMm(doc.Dimensions.Height)
	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(doc.Meta.Title, doc.Meta.Subject, "", doc.Meta.Author, Creator)
	for i, page := range doc.Pages {
		if i > 0 {
			writer.NewPage(width, height)
		}
		c := canvas.New(width, height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // top-left origin like the layout

		if err := r.drawPage(ctx, page, doc.Dimensions); err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, dims layout.Dimensions) error {
	y := layout.Margin
	for _, row := range page.Rows {
		if err := r.drawRow(ctx, row, layout.Margin, y); err != nil {
			return err
		}
		y += row.Height()
	}
	if page.Watermark != nil {
		return r.drawWatermark(ctx, *page.Watermark, dims)
	}
	return nil
}

// drawRow draws the cells of row with its top left corner at x, y (points).
func (r *Renderer) drawRow(ctx *canvas.Context, row layout.MeasuredRow, x, y float64) error {
	height := row.Height()
	cellHeight := height
	if row.Image != nil {
		cellHeight -= row.Image.Height
	}
	for _, cell := range row.Cells {
		box := Box{X: toMm(x), Y: toMm(y), Width: toMm(cell.Width), Height: toMm(cellHeight)}
		drawCellFrame(ctx, cell.Style, box)
		if err := r.drawContent(ctx, cell, box); err != nil {
			return err
		}
		x += cell.Width
	}
	if row.Image != nil {
		img := *row.Image
		box := Box{X: toMm(layout.Margin), Y: toMm(y + cellHeight), Width: toMm(img.Width), Height: toMm(img.Height)}
		if err := r.drawImage(ctx, img.Src, box); err != nil {
			return err
		}
	}
	return nil
}

func drawCellFrame(ctx *canvas.Context, style layout.CellStyle, box Box) {
	if style.BackgroundColor == "" && !style.Grid {
		return
	}
	fill := color.Color(color.Transparent)
	if style.BackgroundColor != "" {
		fill = parseColor(style.BackgroundColor, 1)
	}
	stroke := color.Color(color.Transparent)
	if style.Grid {
		stroke = parseColor(style.GridColor, 1)
	}
	ctx.SetFillColor(fill)
	ctx.SetStrokeColor(stroke)
	ctx.SetStrokeWidth(gridWidth)
	ctx.DrawPath(box.X, box.Y, canvas.Rectangle(box.Width, box.Height))
}

func (r *Renderer) drawContent(ctx *canvas.Context, cell layout.MeasuredCell, box Box) error {
	switch content := cell.Content.(type) {
	case layout.Text:
		return r.drawText(ctx, content.Value, cell, box)
	case layout.Image:
		pad := toMm(cell.Style.LineGap / 2)
		imgBox := Box{X: box.X, Y: box.Y + pad, Width: toMm(content.Width), Height: toMm(content.Height)}
		switch cell.HAlign {
		case layout.AlignCenter:
			imgBox.X += (box.Width - imgBox.Width) / 2
		case layout.AlignRight:
			imgBox.X += box.Width - imgBox.Width
		}
		return r.drawImage(ctx, content.Src, imgBox)
	case layout.Chart:
		pad := toMm(cell.Style.LineGap / 2)
		chartBox := Box{X: box.X, Y: box.Y + pad, Width: box.Width, Height: box.Height - 2*pad}
		if r.charts != nil {
			return r.charts(ctx, content, chartBox)
		}
		ctx.SetFillColor(color.Transparent)
		ctx.SetStrokeColor(canvas.Hex("#b0b0b0"))
		ctx.SetStrokeWidth(gridWidth)
		ctx.DrawPath(chartBox.X, chartBox.Y, canvas.Rectangle(chartBox.Width, chartBox.Height))
		return nil
	case nil:
		return nil
	default:
		// template text is resolved before pagination returns
		return fmt.Errorf("unexpected cell content %T", content)
	}
}

func (r *Renderer) drawText(ctx *canvas.Context, text string, cell layout.MeasuredCell, box Box) error {
	style := cell.Style
	face, err := r.fontFace(style.Font, style.Bold, style.FontSize, parseColor(style.Color, 1), style.Underline)
	if err != nil {
		return err
	}

	lines := wrapLines(text, box.Width-2*toMm(layout.TextHPadding), face, style.NoWrap)
	if style.NoWrap && len(lines) > 1 {
		lines = lines[:1]
	}
	lh := toMm(lineHeight(face, style.FontSize))
	textHeight := lh * float64(len(lines))
	gap := toMm(style.LineGap)

	cursorY := box.Y + gap/2
	switch cell.VAlign {
	case layout.AlignMiddle:
		cursorY = box.Y + (box.Height-textHeight)/2
	case layout.AlignBottom:
		cursorY = box.Y + box.Height - gap/2 - textHeight
	}

	align := canvas.Left
	anchorX := box.X + toMm(layout.TextHPadding)
	switch cell.HAlign {
	case layout.AlignCenter:
		align = canvas.Center
		anchorX = box.X + box.Width/2
	case layout.AlignRight:
		align = canvas.Right
		anchorX = box.X + box.Width - toMm(layout.TextHPadding)
	}

	ascent := face.Metrics().Ascent
	for _, line := range lines {
		if line.content != "" {
			ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.content, align))
		}
		cursorY += lh
	}
	return nil
}

func (r *Renderer) drawImage(ctx *canvas.Context, src string, box Box) error {
	if src == "" {
		return nil
	}
	img, err := r.loadImage(src)
	if err != nil {
		return err
	}
	width := box.Width
	if width <= 0 {
		width = toMm(float64(img.Bounds().Dx()))
	}
	dpmm := float64(img.Bounds().Dx()) / width
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))
	return nil
}

func (r *Renderer) loadImage(src string) (image.Image, error) {
	r.imageMu.Lock()
	defer r.imageMu.Unlock()
	if img, ok := r.images[src]; ok {
		return img, nil
	}

	var data []byte
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := r.imageBlobs[name]
		if !ok {
			return nil, fmt.Errorf("built-in image %s not found", name)
		}
		data = blob
	} else {
		path := src
		if r.baseDir == "" && !filepath.IsAbs(path) {
			return nil, fmt.Errorf("relative image path %s needs a base directory", src)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.baseDir, path)
		}
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", src, err)
		}
		data = blob
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", src, err)
	}
	r.images[src] = img
	return img, nil
}

func (r *Renderer) drawWatermark(ctx *canvas.Context, wm layout.Watermark, dims layout.Dimensions) error {
	if wm.Text == "" {
		return nil
	}
	size := wm.FontSize
	if size <= 0 {
		size = defaultWatermarkSize
	}
	opacity := wm.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = defaultWatermarkOpacity
	}
	col := wm.Color
	if col == "" {
		col = defaultWatermarkColor
	}
	face, err := r.fontFace("", true, size, parseColor(col, opacity), false)
	if err != nil {
		return err
	}

	cx, cy := toMm(dims.Width/2), toMm(dims.Height/2)
	ctx.Push()
	ctx.ComposeView(canvas.Identity.Translate(cx, cy).Rotate(-45))
	ctx.DrawText(0, face.Metrics().XHeight/2, canvas.NewTextLine(face, wm.Text, canvas.Center))
	ctx.Pop()
	return nil
}

// parseColor reads #rgb or #rrggbb; anything else is black.
func parseColor(hex string, opacity float64) color.Color {
	if !strings.HasPrefix(hex, "#") || (len(hex) != 4 && len(hex) != 7) {
		return canvas.RGBA(0, 0, 0, opacity)
	}
	c := canvas.Hex(hex)
	return canvas.RGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, opacity)
}
