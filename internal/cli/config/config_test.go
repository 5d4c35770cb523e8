package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcref/svcref/internal/catalog"
)

// inTempDir runs the test from an empty temp directory so a developer's own
// svcref.yml cannot leak into the result.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svcref.yml"), []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, catalog.DefaultBaseURL, cfg.Catalog.BaseURL)
	assert.Equal(t, 30, cfg.Catalog.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Timeout())
	assert.Equal(t, 2, cfg.Catalog.Retries)
	assert.Equal(t, 512, cfg.Catalog.CacheSize)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.False(t, cfg.Output.NoColor)
	assert.Equal(t, "schemas", cfg.Monitor.SchemaDir)
	assert.Equal(t, 10, cfg.Monitor.SampleSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := inTempDir(t)
	writeConfig(t, dir, `
catalog:
  base_url: https://mirror.example/catalog/
  timeout_seconds: 10
  retries: 1
output:
  format: json
  no_color: true
monitor:
  schema_dir: /var/lib/svcref/schemas
  sample_size: 25
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://mirror.example/catalog/", cfg.Catalog.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout())
	assert.Equal(t, 1, cfg.Catalog.Retries)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.True(t, cfg.Output.NoColor)
	assert.Equal(t, "/var/lib/svcref/schemas", cfg.Monitor.SchemaDir)
	assert.Equal(t, 25, cfg.Monitor.SampleSize)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := inTempDir(t)
	writeConfig(t, dir, `
output:
  format: yaml
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, catalog.DefaultBaseURL, cfg.Catalog.BaseURL)
	assert.Equal(t, 512, cfg.Catalog.CacheSize)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad format",
			content: "output:\n  format: xml\n",
			wantErr: "output.format",
		},
		{
			name:    "empty base url",
			content: "catalog:\n  base_url: \"\"\n",
			wantErr: "catalog.base_url",
		},
		{
			name:    "zero timeout",
			content: "catalog:\n  timeout_seconds: 0\n",
			wantErr: "catalog.timeout_seconds",
		},
		{
			name:    "negative retries",
			content: "catalog:\n  retries: -1\n",
			wantErr: "catalog.retries",
		},
		{
			name:    "zero sample size",
			content: "monitor:\n  sample_size: 0\n",
			wantErr: "monitor.sample_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := inTempDir(t)
			writeConfig(t, dir, tt.content)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := inTempDir(t)
	writeConfig(t, dir, "catalog: [not: valid: yaml\n")

	_, err := Load()
	assert.Error(t, err)
}
