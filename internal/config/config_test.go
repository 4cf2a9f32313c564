package config

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg := Load(v)

	assert.Equal(t, "~/Downloads", cfg.SourceDir)
	assert.Empty(t, cfg.DestinationDir, "empty destination means organize into the source itself")
	assert.True(t, cfg.SkipBundles, "bundles are opaque by default")
	assert.False(t, cfg.IncludeSubfolders)
	assert.False(t, cfg.RemoveEmptyFolders)
	assert.Empty(t, cfg.IgnoreExtensions)
	assert.Empty(t, cfg.IgnorePaths)
}

func TestLoad_FromFile(t *testing.T) {
	content := `
options:
  source: /data/in
  destination: /data/out
  include_subfolders: true
  skip_bundles: false
ignore:
  extensions: [".bak"]
  paths: ["node_modules"]
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(content)))

	cfg := Load(v)
	assert.Equal(t, "/data/in", cfg.SourceDir)
	assert.Equal(t, "/data/out", cfg.DestinationDir)
	assert.True(t, cfg.IncludeSubfolders)
	assert.False(t, cfg.SkipBundles)
	assert.Equal(t, []string{".bak"}, cfg.IgnoreExtensions)
	assert.Equal(t, []string{"node_modules"}, cfg.IgnorePaths)
}

func TestCombinedIgnoreExtensions(t *testing.T) {
	cfg := Config{IgnoreExtensions: []string{"bak", ".TMP"}}
	combined := cfg.CombinedIgnoreExtensions([]string{"log"})

	// Built-in in-progress extensions always lead.
	assert.Equal(t, ".crdownload", combined[0])
	assert.Contains(t, combined, ".part")
	assert.Contains(t, combined, ".!qb")

	// Config and CLI additions are normalized and deduplicated.
	assert.Contains(t, combined, ".bak")
	assert.Contains(t, combined, ".log")

	tmpCount := 0
	for _, ext := range combined {
		if ext == ".tmp" {
			tmpCount++
		}
	}
	assert.Equal(t, 1, tmpCount, ".TMP dedupes against the built-in .tmp")
}

func TestCombinedIgnorePaths(t *testing.T) {
	cfg := Config{IgnorePaths: []string{"Node_Modules", "  "}}
	tokens := cfg.CombinedIgnorePaths([]string{"My Folder"})

	assert.Contains(t, tokens, "node_modules")
	assert.Contains(t, tokens, "my folder")
	assert.Len(t, tokens, 2, "blank entries are dropped")
}
