package rules

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LoadCreatesDefaultFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	manager := NewManager(fs, "/home/u/.tidy")

	require.NoError(t, manager.Load())

	exists, err := afero.Exists(fs, "/home/u/.tidy/rules.yml")
	require.NoError(t, err)
	assert.True(t, exists)

	overrides, err := manager.Overrides(BuiltInRules())
	require.NoError(t, err)
	assert.Empty(t, overrides.Enable)
	assert.Empty(t, overrides.Disable)
	assert.Empty(t, overrides.CustomRules)
}

func TestManager_LoadInvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/home/u/.tidy/rules.yml", []byte("enable: [unterminated"), 0644)

	manager := NewManager(fs, "/home/u/.tidy")
	assert.Error(t, manager.Load())
}

func TestManager_Overrides(t *testing.T) {
	content := `version: 1
enable:
  - Folders
disable:
  - code
order:
  - torrents
  - receipts
subfolders:
  PNG Images: Pictures/PNG
extensions:
  torrents: [torrent, MAGNET]
custom:
  - id: receipts
    subfolder: Documents/Receipts
    conditions:
      - type: name_contains
        values: [receipt, invoice]
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/home/u/.tidy/rules.yml", []byte(content), 0644)

	manager := NewManager(fs, "/home/u/.tidy")
	base := BuiltInRules()
	overrides, err := manager.Overrides(base)
	require.NoError(t, err)

	// References resolve by id, description, or subfolder.
	assert.Contains(t, overrides.Enable, "folders")
	assert.Contains(t, overrides.Disable, "code")
	assert.Equal(t, "Pictures/PNG", overrides.SubfolderOverrides["png_images"])
	assert.Equal(t, []string{".torrent", ".magnet"}, overrides.ExtensionOverrides["torrents"])

	require.Len(t, overrides.CustomRules, 1)
	custom := overrides.CustomRules[0]
	assert.Equal(t, "custom_receipts", custom.ID, "custom ids get prefixed")
	assert.True(t, custom.Enabled, "enabled defaults to true")
	assert.False(t, custom.BuiltIn)
	assert.Equal(t, ModeAll, custom.Mode)

	// Order references resolve for built-ins and fall back to custom ids.
	assert.Equal(t, []string{"torrents", "custom_receipts"}, overrides.Order)
}

func TestManager_OverridesUnknownReferencesDropped(t *testing.T) {
	content := `version: 1
enable: [no_such_rule]
disable: [also_missing]
subfolders:
  missing: Somewhere
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/home/u/.tidy/rules.yml", []byte(content), 0644)

	manager := NewManager(fs, "/home/u/.tidy")
	overrides, err := manager.Overrides(BuiltInRules())
	require.NoError(t, err)

	assert.Empty(t, overrides.Enable)
	assert.Empty(t, overrides.Disable)
	assert.Empty(t, overrides.SubfolderOverrides)
}

func TestManager_CustomRuleDefaultSubfolder(t *testing.T) {
	content := `version: 1
custom:
  - id: Memes
    conditions:
      - type: name_contains
        values: [meme]
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/home/u/.tidy/rules.yml", []byte(content), 0644)

	manager := NewManager(fs, "/home/u/.tidy")
	overrides, err := manager.Overrides(BuiltInRules())
	require.NoError(t, err)

	require.Len(t, overrides.CustomRules, 1)
	rule := overrides.CustomRules[0]
	assert.Equal(t, "custom_memes", rule.ID)
	assert.Equal(t, "Custom/memes", rule.Subfolder, "omitted subfolder defaults to Custom/<id>")
}

func TestManager_OverridesInvalidCustomRule(t *testing.T) {
	// Enabled rules need at least one condition.
	content := `version: 1
custom:
  - id: broken
    subfolder: Stuff
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/home/u/.tidy/rules.yml", []byte(content), 0644)

	manager := NewManager(fs, "/home/u/.tidy")
	_, err := manager.Overrides(BuiltInRules())
	assert.Error(t, err)
}

func TestManager_EndToEndWithApplyOverrides(t *testing.T) {
	content := `version: 1
disable: [screenshots]
custom:
  - id: mime_fallback
    description: Everything else
    subfolder: Other
    mode: any
    conditions:
      - type: name_contains
        values: ["."]
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/home/u/.tidy/rules.yml", []byte(content), 0644)

	manager := NewManager(fs, "/home/u/.tidy")
	base := BuiltInRules()
	overrides, err := manager.Overrides(base)
	require.NoError(t, err)
	active := ApplyOverrides(base, overrides)

	byID := make(map[string]Rule, len(active))
	for _, rule := range active {
		byID[rule.ID] = rule
	}
	assert.False(t, byID["screenshots"].Enabled)
	require.Contains(t, byID, "custom_mime_fallback")
	assert.True(t, IsFallbackRule("custom_mime_fallback"))
}
