/*
Copyright © 2025 changheonshin
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tidy/internal/rules"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the active rule catalog.",
}

// rulesListCmd lists the active rules in priority order, with every override
// from ~/.tidy/rules.yml already applied.
var rulesListCmd = newRulesListCommand()

func newRulesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active rules in priority order.",
		RunE:  runRulesList,
	}
	cmd.Flags().Bool("optimize-priority", false, "Show the order after specificity optimization")
	cmd.Flags().String("config", "", "Rules file to resolve (default ~/.tidy/rules.yml)")
	return cmd
}

func runRulesList(cmd *cobra.Command, args []string) error {
	manager := rules.NewManager(fileSystem, configDir())
	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		manager = rules.NewManagerAt(fileSystem, configPath)
	}
	base := rules.BuiltInRules()
	overrides, err := manager.Overrides(base)
	if err != nil {
		return err
	}
	active := rules.ApplyOverrides(base, overrides)

	optimize, _ := cmd.Flags().GetBool("optimize-priority")
	if optimize {
		active, _ = rules.OptimizePriority(active)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tID\tTYPE\tENABLED\tMODE\tSUBFOLDER\tDESCRIPTION")
	for i, rule := range active {
		kind := "custom"
		if rule.BuiltIn {
			kind = "built-in"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\t%s\t%s\n",
			i+1, rule.ID, kind, rule.Enabled, rule.Mode, rule.Subfolder, rule.Description)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
}
