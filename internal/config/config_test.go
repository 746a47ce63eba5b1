package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IncludeUncategorized)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Server.BodyLimitMB)
	assert.Equal(t, "tesseract", cfg.OCR.Binary)
	assert.Equal(t, "eng", cfg.OCR.Lang)
	assert.Equal(t, 4, cfg.OCR.PSM)
	assert.True(t, cfg.PDF.Pdftotext)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reconbot.yaml")
	content := `
include_uncategorized: false
log:
  level: debug
  json: true
output:
  format: CSV
server:
  addr: "127.0.0.1:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.False(t, cfg.IncludeUncategorized)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Server.BodyLimitMB, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("RECONBOT_LOG_LEVEL", "warn")
	t.Setenv("RECONBOT_OCR_PSM", "6")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 6, cfg.OCR.PSM)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "pdf"
	cfg.Server.BodyLimitMB = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
	assert.Contains(t, err.Error(), "server.body_limit_mb")
}

func TestBindFlags(t *testing.T) {
	v := New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("debug", false, "")
	fs.String("format", "xlsx", "")
	require.NoError(t, BindFlags(v, fs, map[string]string{
		"debug":         "debug",
		"output.format": "format",
		"log.level":     "not-a-flag",
	}))

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.False(t, cfg.Debug, "unset flag keeps default")

	require.NoError(t, fs.Parse([]string{"--debug", "--format=csv"}))
	cfg, err = Decode(v)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "csv", cfg.Output.Format)
}
