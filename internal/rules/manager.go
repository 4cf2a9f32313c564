package rules

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"tidy/internal/fsutil"
)

const (
	// DefaultRulesFile is the rule override file name inside the config dir.
	DefaultRulesFile = "rules.yml"
	// DefaultVersion is the current rules file format version.
	DefaultVersion = 1
)

// rulesFile is the on-disk override format. Every rule reference accepts the
// canonical id, the description, or the subfolder of a built-in rule.
type rulesFile struct {
	Version    int                 `yaml:"version"`
	Enable     []string            `yaml:"enable,omitempty"`
	Disable    []string            `yaml:"disable,omitempty"`
	Order      []string            `yaml:"order,omitempty"`
	Subfolders map[string]string   `yaml:"subfolders,omitempty"`
	Extensions map[string][]string `yaml:"extensions,omitempty"`
	Custom     []customRule        `yaml:"custom,omitempty"`
}

// customRule is the on-disk shape of a user-defined rule. Enabled defaults to
// true when omitted.
type customRule struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description,omitempty"`
	Subfolder   string      `yaml:"subfolder"`
	Enabled     *bool       `yaml:"enabled,omitempty"`
	Mode        Mode        `yaml:"mode,omitempty"`
	Conditions  []Condition `yaml:"conditions,omitempty"`
}

// Manager handles the rule override configuration file.
type Manager struct {
	fs         afero.Fs
	configPath string
	file       *rulesFile
}

// NewManager creates a new rules manager rooted at the given config directory.
func NewManager(fsys afero.Fs, configDir string) *Manager {
	return NewManagerAt(fsys, filepath.Join(configDir, DefaultRulesFile))
}

// NewManagerAt creates a rules manager reading an explicit rules file path.
func NewManagerAt(fsys afero.Fs, configPath string) *Manager {
	return &Manager{
		fs:         fsys,
		configPath: configPath,
	}
}

// GetConfigPath returns the path to the rules configuration file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Load reads the override file, creating an empty default one on first run.
func (m *Manager) Load() error {
	exists, err := afero.Exists(m.fs, m.configPath)
	if err != nil {
		return fmt.Errorf("failed to stat rules file: %w", err)
	}
	if !exists {
		m.file = &rulesFile{Version: DefaultVersion}
		return m.Save()
	}

	data, err := afero.ReadFile(m.fs, m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}

	file := &rulesFile{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return fmt.Errorf("failed to parse rules file: %w", err)
	}
	if file.Version == 0 {
		file.Version = DefaultVersion
	}

	m.file = file
	return nil
}

// Save writes the override file back to disk.
func (m *Manager) Save() error {
	if err := m.fs.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.file)
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}

	if err := afero.WriteFile(m.fs, m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}

// Overrides resolves the loaded file against the base rule set. Rule
// references are matched by id, description, or subfolder; unknown references
// are dropped so a stale config never aborts a run. Custom rule ids get a
// "custom_" prefix to keep them apart from built-ins.
func (m *Manager) Overrides(base []Rule) (Overrides, error) {
	if m.file == nil {
		if err := m.Load(); err != nil {
			return Overrides{}, err
		}
	}

	aliases := RuleAliases(base)
	resolve := func(ref string) (string, bool) {
		normalized := fsutil.NormalizeIdentifier(ref)
		if id, ok := aliases[normalized]; ok {
			return id, true
		}
		return normalized, false
	}

	overrides := Overrides{
		ExtensionOverrides: make(map[string][]string),
		SubfolderOverrides: make(map[string]string),
		Enable:             make(map[string]struct{}),
		Disable:            make(map[string]struct{}),
	}

	for _, ref := range m.file.Enable {
		if id, ok := resolve(ref); ok {
			overrides.Enable[id] = struct{}{}
		}
	}
	for _, ref := range m.file.Disable {
		if id, ok := resolve(ref); ok {
			overrides.Disable[id] = struct{}{}
		}
	}
	for ref, subfolder := range m.file.Subfolders {
		if id, ok := resolve(ref); ok {
			overrides.SubfolderOverrides[id] = subfolder
		}
	}
	for ref, extensions := range m.file.Extensions {
		id, ok := resolve(ref)
		if !ok {
			continue
		}
		normalized := make([]string, 0, len(extensions))
		for _, raw := range extensions {
			ext, err := fsutil.NormalizeExtension(raw)
			if err != nil {
				return Overrides{}, fmt.Errorf("extensions for '%s': %w", ref, err)
			}
			normalized = append(normalized, ext)
		}
		overrides.ExtensionOverrides[id] = normalized
	}

	for _, entry := range m.file.Custom {
		rule, err := parseCustomRule(entry)
		if err != nil {
			return Overrides{}, err
		}
		overrides.CustomRules = append(overrides.CustomRules, rule)
	}

	// Order entries may name built-ins by any alias or custom rules by their
	// prefixed id.
	for _, ref := range m.file.Order {
		id, ok := resolve(ref)
		if !ok {
			id = customRuleID(ref)
		}
		overrides.Order = append(overrides.Order, id)
	}

	return overrides, nil
}

// parseCustomRule converts an on-disk custom rule into a validated Rule.
func parseCustomRule(entry customRule) (Rule, error) {
	enabled := true
	if entry.Enabled != nil {
		enabled = *entry.Enabled
	}
	description := entry.Description
	if description == "" {
		description = entry.ID
	}
	subfolder := entry.Subfolder
	if subfolder == "" {
		subfolder = "Custom/" + fsutil.NormalizeIdentifier(entry.ID)
	}
	rule, err := NewRule(customRuleID(entry.ID), description, subfolder, enabled, false, entry.Mode, entry.Conditions)
	if err != nil {
		return Rule{}, fmt.Errorf("custom rule: %w", err)
	}
	return rule, nil
}

// customRuleID normalizes a custom rule reference and prefixes it so a custom
// rule can never collide with or silently replace a built-in.
func customRuleID(ref string) string {
	normalized := fsutil.NormalizeIdentifier(ref)
	if normalized == "" {
		return normalized
	}
	if len(normalized) > 7 && normalized[:7] == "custom_" {
		return normalized
	}
	return "custom_" + normalized
}
