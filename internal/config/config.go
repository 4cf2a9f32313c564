package config

import (
	"strings"

	"github.com/spf13/viper"

	"tidy/internal/fsutil"
)

// DefaultIgnoreExtensions covers in-progress downloads and scratch files that
// must never be moved while a browser or torrent client still owns them.
var DefaultIgnoreExtensions = []string{
	".crdownload", ".part", ".partial", ".download", ".opdownload", ".!qb", ".tmp",
}

// Config is the typed view of the configuration file. Command-line flags
// override these values; these override the built-in defaults.
type Config struct {
	SourceDir           string
	DestinationDir      string
	UndoDBPath          string
	IncludeSubfolders   bool
	IncludeFolders      bool
	IncludeEmptyFolders bool
	IncludeTagged       bool
	IgnoreTagged        bool
	IgnoreAliases       bool
	IgnoreFolders       bool
	SkipBundles         bool
	RemoveEmptyFolders  bool
	IgnoreExtensions    []string
	IgnorePaths         []string
}

// SetDefaults registers the configuration defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("options.source", "~/Downloads")
	// An empty destination means the source directory itself.
	v.SetDefault("options.destination", "")
	v.SetDefault("options.include_subfolders", false)
	v.SetDefault("options.include_folders", false)
	v.SetDefault("options.include_empty_folders", false)
	v.SetDefault("options.include_tagged", false)
	v.SetDefault("options.ignore_tagged", false)
	v.SetDefault("options.ignore_aliases", false)
	v.SetDefault("options.ignore_folders", false)
	v.SetDefault("options.skip_bundles", true)
	v.SetDefault("options.remove_empty_folders", false)
	v.SetDefault("ignore.extensions", []string{})
	v.SetDefault("ignore.paths", []string{})
}

// Load reads the typed configuration from a viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		SourceDir:           v.GetString("options.source"),
		DestinationDir:      v.GetString("options.destination"),
		UndoDBPath:          v.GetString("options.undo_db"),
		IncludeSubfolders:   v.GetBool("options.include_subfolders"),
		IncludeFolders:      v.GetBool("options.include_folders"),
		IncludeEmptyFolders: v.GetBool("options.include_empty_folders"),
		IncludeTagged:       v.GetBool("options.include_tagged"),
		IgnoreTagged:        v.GetBool("options.ignore_tagged"),
		IgnoreAliases:       v.GetBool("options.ignore_aliases"),
		IgnoreFolders:       v.GetBool("options.ignore_folders"),
		SkipBundles:         v.GetBool("options.skip_bundles"),
		RemoveEmptyFolders:  v.GetBool("options.remove_empty_folders"),
		IgnoreExtensions:    v.GetStringSlice("ignore.extensions"),
		IgnorePaths:         v.GetStringSlice("ignore.paths"),
	}
}

// CombinedIgnoreExtensions merges the built-in defaults, the configuration,
// and command-line additions into one normalized, deduplicated list.
func (c Config) CombinedIgnoreExtensions(cli []string) []string {
	seen := make(map[string]struct{})
	var combined []string
	for _, group := range [][]string{DefaultIgnoreExtensions, c.IgnoreExtensions, cli} {
		for _, raw := range group {
			ext, err := fsutil.NormalizeExtension(raw)
			if err != nil {
				continue
			}
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			combined = append(combined, ext)
		}
	}
	return combined
}

// CombinedIgnorePaths merges configured and command-line ignore tokens into
// the lowercased set the scanner matches against.
func (c Config) CombinedIgnorePaths(cli []string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, group := range [][]string{c.IgnorePaths, cli} {
		for _, raw := range group {
			token := strings.ToLower(strings.TrimSpace(raw))
			if token == "" {
				continue
			}
			tokens[token] = struct{}{}
		}
	}
	return tokens
}
