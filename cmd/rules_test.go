/*
Copyright © 2025 changheonshin
*/
package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesList(t *testing.T) {
	fs := afero.NewMemMapFs()
	withTestEnv(t, fs, &MockStore{})

	cmd := newRulesListCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, runRulesList(cmd, nil))

	listing := out.String()
	assert.Contains(t, listing, "PRIORITY")
	assert.Contains(t, listing, "TYPE")
	assert.Contains(t, listing, "screenshots")
	assert.Contains(t, listing, "png_images")
	assert.Contains(t, listing, "built-in")
	assert.Contains(t, listing, "Images/PNG")

	lines := strings.Split(strings.TrimSpace(listing), "\n")
	assert.Len(t, lines, 23, "header plus the 22 built-in rules")
}

func TestRulesList_ExplicitConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	overrides := `
version: 1
disable: [screenshots]
custom:
  - id: invoices
    subfolder: Finance/Invoices
    conditions:
      - type: name_contains
        values: [invoice]
`
	require.NoError(t, afero.WriteFile(fs, "/alt/rules.yml", []byte(overrides), 0644))
	withTestEnv(t, fs, &MockStore{})

	cmd := newRulesListCommand()
	require.NoError(t, cmd.Flags().Set("config", "/alt/rules.yml"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, runRulesList(cmd, nil))

	listing := out.String()
	assert.Contains(t, listing, "custom_invoices")
	assert.Contains(t, listing, "Finance/Invoices")

	for _, line := range strings.Split(strings.TrimSpace(listing), "\n") {
		if strings.Contains(line, "screenshots") {
			assert.Contains(t, line, "false", "disabled by the explicit config")
		}
		if strings.Contains(line, "custom_invoices") {
			assert.NotContains(t, line, "built-in", "user rules are listed as custom")
		}
	}
}

func TestRulesList_OptimizedOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	withTestEnv(t, fs, &MockStore{})

	cmd := newRulesListCommand()
	require.NoError(t, cmd.Flags().Set("optimize-priority", "true"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, runRulesList(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 23)

	// Disabled built-ins sink to the bottom under optimization.
	assert.Contains(t, lines[21]+lines[22], "aliases")
	assert.Contains(t, lines[21]+lines[22], "folders")
}
