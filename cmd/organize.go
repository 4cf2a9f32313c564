/*
Copyright © 2025 changheonshin
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tidy/internal/config"
	"tidy/internal/fsutil"
	"tidy/internal/planner"
	"tidy/internal/report"
	"tidy/internal/rules"
	"tidy/internal/scanner"
	"tidy/internal/txn"
)

// organizeCmd represents the organize command
var organizeCmd = newOrganizeCommand()

// newOrganizeCommand builds the organize command; tests create their own
// instance to keep flag state isolated.
func newOrganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Classify the source directory and move matches into the destination.",
		Long: `Scans the source directory, matches every candidate against the active
rule set in priority order, and plans one move per match. Without --apply the
plan is only printed. With --apply the moves are executed, empty folders are
optionally cleaned up, and the whole run is saved as an undoable transaction.`,
		RunE: runOrganize,
	}

	cmd.Flags().String("source", "~/Downloads", "Directory to organize")
	cmd.Flags().String("destination", "", "Destination root for organized files (default: the source directory)")
	cmd.Flags().String("undo-db", "", "Path to the transaction database (default ~/.tidy/transactions.db)")
	cmd.Flags().Bool("apply", false, "Execute the planned moves instead of printing them")
	cmd.Flags().Bool("verbose", false, "Print per-item and per-rule details")
	cmd.Flags().Bool("include-subfolders", false, "Scan nested folders recursively")
	cmd.Flags().Bool("include-folders", false, "Treat folders as movable items")
	cmd.Flags().Bool("include-empty-folders", false, "Restrict folder candidates to empty folders")
	cmd.Flags().Bool("include-tagged", false, "Probe Finder tags so has_tag rules can match")
	cmd.Flags().Bool("ignore-tagged", false, "Never move tagged items")
	cmd.Flags().Bool("ignore-aliases", false, "Never move symlinks")
	cmd.Flags().Bool("ignore-folders", false, "Count folders as ignored")
	cmd.Flags().Bool("skip-bundles", true, "Treat bundle directories as opaque and skip them")
	cmd.Flags().Bool("remove-empty-folders", false, "Remove source folders that become empty after an applied run")
	cmd.Flags().Bool("create-dated-top-folder", false, "Nest the destination under a per-run timestamp folder")
	cmd.Flags().StringArray("ignore-ext", nil, "Additional extension to skip (repeatable)")
	cmd.Flags().StringArray("ignore-path", nil, "Path token to skip (repeatable)")
	cmd.Flags().String("stats-json", "", "Write a machine-readable run report to this path")
	cmd.Flags().Bool("optimize-priority", false, "Reorder enabled rules by specificity before matching")

	return cmd
}

func runOrganize(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	cfg := config.Load(viper.GetViper())
	now := time.Now()

	sourceDir := filepath.Clean(fsutil.ExpandHome(stringSetting(cmd, "source", cfg.SourceDir), home))
	destinationDir := stringSetting(cmd, "destination", cfg.DestinationDir)
	if destinationDir == "" {
		destinationDir = sourceDir
	} else {
		destinationDir = filepath.Clean(fsutil.ExpandHome(destinationDir, home))
	}
	if dated, _ := cmd.Flags().GetBool("create-dated-top-folder"); dated {
		destinationDir = planner.DatedDestination(destinationDir, now)
	}
	undoDBPath := stringSetting(cmd, "undo-db", cfg.UndoDBPath)
	if undoDBPath == "" {
		undoDBPath = filepath.Join(configDir(), "transactions.db")
	}
	undoDBPath = fsutil.ExpandHome(undoDBPath, home)

	apply, _ := cmd.Flags().GetBool("apply")
	verbose, _ := cmd.Flags().GetBool("verbose")
	optimize, _ := cmd.Flags().GetBool("optimize-priority")
	removeEmpty := boolSetting(cmd, "remove-empty-folders", cfg.RemoveEmptyFolders)
	statsPath, _ := cmd.Flags().GetString("stats-json")
	ignoreExtFlags, _ := cmd.Flags().GetStringArray("ignore-ext")
	ignorePathFlags, _ := cmd.Flags().GetStringArray("ignore-path")

	// Active rule set: built-ins reshaped by ~/.tidy/rules.yml.
	manager := rules.NewManager(fileSystem, configDir())
	base := rules.BuiltInRules()
	overrides, err := manager.Overrides(base)
	if err != nil {
		return err
	}
	active := rules.ApplyOverrides(base, overrides)
	optReport := rules.NewOptimizationReport(active)
	if optimize {
		active, optReport = rules.OptimizePriority(active)
		if verbose && optReport.Changed {
			fmt.Printf("OPTIMIZE: rule order changed (%s)\n", optReport.Strategy)
		}
	}

	// The destination subtree is pruned from the scan only when it is a
	// distinct directory; with the default destination (the source itself)
	// pruning it would skip every entry.
	scanDestination := ""
	if destinationDir != sourceDir {
		scanDestination = destinationDir
	}

	opts := &scanner.Options{
		DestinationDir:      scanDestination,
		IncludeSubfolders:   boolSetting(cmd, "include-subfolders", cfg.IncludeSubfolders),
		IncludeFolders:      boolSetting(cmd, "include-folders", cfg.IncludeFolders),
		IncludeEmptyFolders: boolSetting(cmd, "include-empty-folders", cfg.IncludeEmptyFolders),
		IncludeTagged:       boolSetting(cmd, "include-tagged", cfg.IncludeTagged),
		IgnoreTagged:        boolSetting(cmd, "ignore-tagged", cfg.IgnoreTagged),
		IgnoreAliases:       boolSetting(cmd, "ignore-aliases", cfg.IgnoreAliases),
		IgnoreFolders:       boolSetting(cmd, "ignore-folders", cfg.IgnoreFolders),
		SkipBundles:         boolSetting(cmd, "skip-bundles", cfg.SkipBundles),
		IgnoreExtensions:    cfg.CombinedIgnoreExtensions(ignoreExtFlags),
		IgnorePaths:         cfg.CombinedIgnorePaths(ignorePathFlags),
		Verbose:             verbose,
	}

	probe := scanner.DefaultTagProbe(fileSystem)
	items, ignored, err := scanner.NewScanner(fileSystem, probe).Scan(sourceDir, opts)
	if err != nil {
		return err
	}

	evaluator := rules.NewEvaluator(now)
	plan, summary := planner.NewPlanner(fileSystem, evaluator).Plan(items, ignored, active, destinationDir)

	executor := planner.NewExecutor(fileSystem, apply, verbose)
	executed := executor.Execute(plan, &summary)

	var removedDirs []string
	if apply && removeEmpty {
		excluded := map[string]struct{}{destinationDir: {}}
		removedDirs = planner.RemoveEmptyDirs(fileSystem, sourceDir, excluded)
		for _, dir := range removedDirs {
			fmt.Printf("REMOVED EMPTY: %s\n", dir)
		}
	}

	if apply && len(executed) > 0 {
		if err := saveTransaction(undoDBPath, now, sourceDir, destinationDir, executed, removedDirs); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: failed to record transaction: %v\n", err)
			summary.Errors++
		}
	}

	printSummary(summary, active, verbose)

	if statsPath != "" {
		statsPath = fsutil.ExpandHome(statsPath, home)
		stats := report.BuildStats(now, apply, sourceDir, destinationDir, active, summary, optReport)
		if err := report.WriteStats(fileSystem, statsPath, stats); err != nil {
			return err
		}
		fmt.Printf("STATS: %s\n", statsPath)
	}

	if summary.Errors > 0 {
		return fmt.Errorf("completed with %d errors", summary.Errors)
	}
	return nil
}

// saveTransaction records an applied run in the undo database.
func saveTransaction(dbPath string, now time.Time, sourceDir, destinationDir string,
	executed []planner.ExecutedMove, removedDirs []string) error {

	store := newStore(dbPath)
	if err := store.Init(); err != nil {
		return err
	}
	defer store.Close()

	record := txn.Transaction{
		ID:             txn.NewTransactionID(now),
		CreatedAt:      now,
		SourceDir:      sourceDir,
		DestinationDir: destinationDir,
		RemovedDirs:    removedDirs,
	}
	for _, move := range executed {
		record.Moves = append(record.Moves, txn.Move{From: move.From, To: move.To, RuleID: move.RuleID})
	}
	if err := store.Save(record); err != nil {
		return err
	}
	fmt.Printf("TRANSACTION: %s (%d moves)\n", record.ID, len(record.Moves))
	return nil
}

func printSummary(summary planner.Summary, active []rules.Rule, verbose bool) {
	fmt.Printf("SUMMARY: scanned=%d ignored=%d matched=%d planned=%d moved=%d collisions=%d errors=%d rules_used=%d\n",
		summary.Scanned, summary.Ignored, summary.Matched, summary.PlannedMoves,
		summary.Moved, summary.Collisions, summary.Errors, summary.RulesUsed)
	fmt.Printf("REPORT: total_targets=%d unclassified=%d fallback=%d\n",
		summary.TotalTargets, summary.Unclassified, summary.Fallback)
	if !verbose {
		return
	}
	for _, rule := range active {
		if hits := summary.RuleHits[rule.ID]; hits > 0 {
			fmt.Printf("RULE_HITS: %s=%d -> %s\n", rule.ID, hits, rule.Subfolder)
		}
	}
}

// stringSetting prefers an explicitly set flag over the configuration value.
func stringSetting(cmd *cobra.Command, flag, fallback string) string {
	if cmd.Flags().Changed(flag) {
		value, _ := cmd.Flags().GetString(flag)
		return value
	}
	return fallback
}

// boolSetting prefers an explicitly set flag over the configuration value.
func boolSetting(cmd *cobra.Command, flag string, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		value, _ := cmd.Flags().GetBool(flag)
		return value
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(organizeCmd)
}
