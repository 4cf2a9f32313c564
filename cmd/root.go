/*
Copyright © 2025 changheonshin
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tidy/internal/config"
	"tidy/internal/txn"
)

// fileSystem is the filesystem abstraction, defaults to osFs
var fileSystem = afero.NewOsFs()

// newStore builds the transaction store; tests swap in a mock.
var newStore = func(dbPath string) txn.StoreInterface {
	return txn.NewStore(dbPath)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tidy",
	Short: "tidy sorts your Downloads folder into organized subfolders by rule.",
	Long: `tidy is a command-line tool that classifies the entries of a source
directory (typically ~/Downloads) against an ordered rule catalog and moves
each match into a destination subfolder. Runs are dry-run by default, every
applied run is recorded as a transaction, and any transaction can be undone.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// configDir returns the per-user configuration directory, ~/.tidy.
func configDir() string {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	return filepath.Join(home, ".tidy")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configPath := configDir()
	configName := "config"
	configType := "yml"
	configFile := filepath.Join(configPath, fmt.Sprintf("%s.%s", configName, configType))

	viper.AddConfigPath(configPath)
	viper.SetConfigName(configName)
	viper.SetConfigType(configType)
	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("TIDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		// If config file not found, create it
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := os.MkdirAll(configPath, os.ModePerm); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating config directory: %s\n", err)
				os.Exit(1)
			}

			defaultConfig := `# ~/.tidy/config.yml
options:
  # Directory to organize.
  source: "~/Downloads"
  # Where organized files go. Empty means the source directory itself; a
  # distinct destination is excluded from scanning.
  destination: ""
  # Scan nested folders instead of only the top level.
  include_subfolders: false
  # Treat folders themselves as movable items.
  include_folders: false
  # Restrict folder candidates to empty folders.
  include_empty_folders: false
  # Probe Finder tags and let has_tag rules match.
  include_tagged: false
  # Never move tagged items.
  ignore_tagged: false
  # Never move symlinks / aliases.
  ignore_aliases: false
  # Count folders as ignored instead of moving them.
  ignore_folders: false
  # Treat .app/.bundle/.framework/.plugin directories as opaque and skip them.
  skip_bundles: true
  # Remove source directories that become empty after an applied run.
  remove_empty_folders: false

ignore:
  # Extra extensions to skip, merged with the built-in in-progress set.
  extensions: []
  # Path tokens to skip (matched against relative path, base name, full path).
  paths: []
`
			if err := os.WriteFile(configFile, []byte(defaultConfig), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating config file: %s\n", err)
				os.Exit(1)
			}
			fmt.Println("Configuration file created at:", configFile)

		} else {
			// Config file was found but another error was produced
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}
}
