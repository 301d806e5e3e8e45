package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
logging:
  level: debug
output:
  dir: results
  workbook: true
groupings:
  - [gender, sick]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.True(t, cfg.Output.Workbook)
	assert.Equal(t, [][]string{{"gender", "sick"}}, cfg.Groupings)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "logging:\n  level: debug\n")
	t.Setenv("NOSHOW_LOGGING_LEVEL", "warn")
	t.Setenv("NOSHOW_LOGGING_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Logging{Level: "warn", Format: "json"}, cfg.Logging)
}

func TestLoad_Invalid(t *testing.T) {
	tcs := []struct {
		name    string
		content string
	}{
		{name: "level", content: "logging:\n  level: loud\n"},
		{name: "format", content: "logging:\n  format: xml\n"},
		{name: "empty grouping", content: "groupings:\n  - []\n"},
		{name: "no groupings", content: "groupings: []\n"},
		{name: "unknown key", content: "colour: blue\n"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.content))
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfig)
}
