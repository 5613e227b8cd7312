package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/canyon-trail/reportscript-sub000/config"
	"github.com/canyon-trail/reportscript-sub000/dsl"
	"github.com/canyon-trail/reportscript-sub000/layout"
	"github.com/canyon-trail/reportscript-sub000/renderer"
	canvasrenderer "github.com/canyon-trail/reportscript-sub000/renderer/canvas"
	"github.com/canyon-trail/reportscript-sub000/schema"
)

func main() {
	input := flag.String("in", "examples/demo.report", "report file (.report DSL, .json or .yaml)")
	output := flag.String("out", "output/demo.pdf", "PDF output path")
	debug := flag.String("debug", "", "paginated layout JSON output path")
	dataJSON := flag.String("data", "", "JSON data bound to ${...} placeholders")
	configPath := flag.String("config", "", "YAML configuration file")
	now := flag.String("now", "", "creation time for timestamps (RFC 3339), defaults to the current time")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("configure logging: %v", err)
	}

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("parse data JSON: %v", err)
		}
	}

	created := time.Now()
	if *now != "" {
		if created, err = time.Parse(time.RFC3339, *now); err != nil {
			log.Fatalf("parse -now: %v", err)
		}
	}

	baseDir := cfg.Images.BaseDir
	if baseDir == "" || baseDir == "." {
		baseDir = filepath.Dir(*input)
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: baseDir,
		Fonts:   fontSources(cfg.Fonts),
	})

	j := job{
		input:   *input,
		output:  *output,
		debug:   *debug,
		data:    inputData,
		created: created,
		config:  cfg,
		logger:  logger,
	}
	if err := run(j, r, r); err != nil {
		log.Fatalf("generate PDF: %v", err)
	}
	logger.Info("wrote pdf", "path", *output)
}

type job struct {
	input, output, debug string
	data                 any
	created              time.Time
	config               *config.Config
	logger               *slog.Logger
}

// run chains parsing, layout and rendering.
func run(j job, m layout.TextMeasurer, r renderer.Renderer) error {
	if r == nil || m == nil {
		return fmt.Errorf("renderer and measurer are required")
	}
	doc, err := loadDocument(j.input, j.data)
	if err != nil {
		return err
	}
	if j.config != nil {
		j.config.Apply(doc)
	}

	result, err := layout.Build(doc, layout.BuildOptions{
		Measurer: m,
		Created:  j.created,
		Logger:   j.logger,
	})
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	if j.debug != "" {
		if err := writeDebug(result, j.debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}
	if err := os.WriteFile(j.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write PDF file: %w", err)
	}
	return nil
}

// loadDocument reads a DSL report or a JSON/YAML document depending on the extension.
func loadDocument(path string, data any) (*layout.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		doc, err := schema.Load(path)
		if err != nil {
			return nil, err
		}
		return doc.ToLayout(data)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer file.Close()
	rep, err := dsl.Parse(path, file)
	if err != nil {
		return nil, err
	}
	return dsl.ToDocument(rep, data)
}

func writeDebug(result *layout.PaginatedDocument, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("create debug directory: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("write debug JSON: %w", err)
	}
	return nil
}

// newLogger writes text to terminals and JSON otherwise unless the config
// forces a format.
func newLogger(cfg *config.Config, w *os.File) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	format := cfg.Logging.Format
	if format == "" || format == "auto" {
		format = "json"
		if term.IsTerminal(int(w.Fd())) {
			format = "text"
		}
	}
	return slog.New(newHandler(format, w, opts)), nil
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func fontSources(fc config.FontsConfig) map[string]canvasrenderer.FontSource {
	if fc.Regular == "" {
		return nil
	}
	src := canvasrenderer.FontSource{Regular: canvasrenderer.Resource{Path: absPath(fc.Regular)}}
	if fc.Bold != "" {
		src.Bold = canvasrenderer.Resource{Path: absPath(fc.Bold)}
	}
	// configured files replace the built-in default family
	return map[string]canvasrenderer.FontSource{"regular": src}
}

// absPath resolves config paths against the working directory rather than
// the renderer's base directory.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
