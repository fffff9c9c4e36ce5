package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./datastore", cfg.DataDir)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Empty(t, cfg.JournalPath)
	assert.False(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/viewstore
journal: /var/lib/viewstore/journal.db
format: json
verbose: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		DataDir:     "/var/lib/viewstore",
		JournalPath: "/var/lib/viewstore/journal.db",
		Format:      FormatJSON,
		Verbose:     true,
	}, cfg)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "journal: j.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "./datastore", cfg.DataDir)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "j.db", cfg.JournalPath)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "datadir: /tmp\n"},
		{"bad format", "format: xml\n"},
		{"empty data dir", "data_dir: \"\"\n"},
		{"not yaml", "data_dir: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApply(t *testing.T) {
	dir := "/srv/data"
	verbose := true

	cfg := Default().Apply(Overrides{DataDir: &dir, Verbose: &verbose})

	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "./datastore", Default().DataDir)
}
