package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canyon-trail/reportscript-sub000/layout"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".", cfg.Images.BaseDir)
	assert.Equal(t, "auto", cfg.Logging.Format)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
page:
  size: A4
  layout: portrait
  timestamp_format: "2006-01-02 15:04"
fonts:
  regular: fonts/body.ttf
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "A4", cfg.Page.Size)
	assert.Equal(t, "fonts/body.ttf", cfg.Fonts.Regular)
	assert.Empty(t, cfg.Fonts.Bold)
	assert.Equal(t, ".", cfg.Images.BaseDir, "unset fields keep their defaults")

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	doc := &layout.Document{Layout: layout.Landscape}
	cfg.Apply(doc)
	assert.Equal(t, layout.A4, doc.PageSize)
	assert.Equal(t, layout.Portrait, doc.Layout)
	assert.Equal(t, "2006-01-02 15:04", doc.TimestampFormat)
}

func TestApplyKeepsDocumentSettings(t *testing.T) {
	doc := &layout.Document{Layout: layout.Portrait, PageSize: layout.Legal, TimestampFormat: "15:04"}
	Default().Apply(doc)
	assert.Equal(t, layout.Portrait, doc.Layout)
	assert.Equal(t, layout.Legal, doc.PageSize)
	assert.Equal(t, "15:04", doc.TimestampFormat)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Page.Size = "tabloid"
	cfg.Page.Layout = "sideways"
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "page.size")
	assert.ErrorContains(t, err, "page.layout")
	assert.ErrorContains(t, err, "logging.level")
	assert.ErrorContains(t, err, "logging.format")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("page: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("page:\n  size: tabloid\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
