/*
Copyright © 2025 changheonshin
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tidy/internal/fsutil"
	"tidy/internal/txn"
)

// undoCmd represents the undo command
var undoCmd = newUndoCommand()

func newUndoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert a recorded run by moving its files back.",
		Long: `Replays the moves of a recorded transaction in reverse, restoring each
file to where it came from. Without --id the newest pending transaction is
picked. Restored files never overwrite newer ones; occupied locations get a
collision-renamed path instead.`,
		RunE: runUndo,
	}
	cmd.PersistentFlags().String("db", "", "Path to the transaction database (default ~/.tidy/transactions.db)")
	cmd.Flags().String("id", "", "Transaction to undo (default: newest pending)")
	cmd.Flags().Bool("apply", false, "Execute the restore instead of printing it")
	return cmd
}

func runUndo(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	apply, _ := cmd.Flags().GetBool("apply")

	store := newStore(undoDBPath(cmd))
	if err := store.Init(); err != nil {
		return err
	}
	defer store.Close()

	if id != "" {
		record, err := store.Get(id)
		if err != nil {
			return err
		}
		if !record.Pending() {
			return fmt.Errorf("transaction '%s' was already undone", id)
		}
		return undoRecord(store, record, apply)
	}

	records, err := store.List()
	if err != nil {
		return err
	}
	record, err := txn.PickTransaction(records, "")
	if err != nil {
		return err
	}
	return undoRecord(store, record, apply)
}

// undoRecord replays one transaction. The record is stamped undone only after
// a clean apply; a partial failure leaves it pending so the undo can be
// retried.
func undoRecord(store txn.StoreInterface, record txn.Transaction, apply bool) error {
	result := txn.UndoTransaction(fileSystem, record, apply)
	if apply && result.Errors == 0 {
		if err := store.MarkUndone(record.ID, time.Now()); err != nil {
			return err
		}
	}

	fmt.Printf("UNDO %s: restored=%d collisions=%d errors=%d\n",
		record.ID, result.Restored, result.Collisions, result.Errors)
	if result.Errors > 0 {
		return fmt.Errorf("undo completed with %d errors, transaction stays pending", result.Errors)
	}
	return nil
}

// undoListCmd lists recorded transactions, newest first.
var undoListCmd = newUndoListCommand()

func newUndoListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded transactions, newest first.",
		RunE:  runUndoList,
	}
}

func runUndoList(cmd *cobra.Command, args []string) error {
	store := newStore(undoDBPath(cmd))
	if err := store.Init(); err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tMOVES\tSTATUS\tSOURCE")
	for _, record := range records {
		status := "pending"
		if !record.Pending() {
			status = "undone"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			record.ID, record.CreatedAt.Format("2006-01-02 15:04:05"),
			len(record.Moves), status, record.SourceDir)
	}
	return w.Flush()
}

// undoDeleteCmd deletes transaction records, by id or by age.
var undoDeleteCmd = newUndoDeleteCommand()

func newUndoDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete transaction records by id or age.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUndoDelete,
	}
	cmd.Flags().Int("older-than-days", 0, "Delete all transactions older than this many days")
	cmd.Flags().Bool("apply", false, "Execute the deletion instead of previewing it")
	return cmd
}

func runUndoDelete(cmd *cobra.Command, args []string) error {
	olderThanDays, _ := cmd.Flags().GetInt("older-than-days")
	apply, _ := cmd.Flags().GetBool("apply")
	if len(args) == 0 && olderThanDays <= 0 {
		return fmt.Errorf("provide a transaction id or --older-than-days")
	}

	store := newStore(undoDBPath(cmd))
	if err := store.Init(); err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		record, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if !apply {
			fmt.Printf("DRY-RUN: would delete transaction %s (%d moves)\n", record.ID, len(record.Moves))
			return nil
		}
		if _, err := store.Delete(record.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted transaction %s\n", record.ID)
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	count, err := store.CountOlderThan(cutoff)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("No transactions older than the cutoff.")
		return nil
	}
	if !apply {
		fmt.Printf("DRY-RUN: would delete %d transactions older than %d days\n", count, olderThanDays)
		return nil
	}
	deleted, err := store.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d transactions older than %d days\n", deleted, olderThanDays)
	return nil
}

// undoDBPath resolves the transaction database path from flag, config, or the
// default under ~/.tidy.
func undoDBPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("options.undo_db")
	}
	if path == "" {
		return filepath.Join(configDir(), "transactions.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return fsutil.ExpandHome(path, home)
}

func init() {
	rootCmd.AddCommand(undoCmd)
	undoCmd.AddCommand(undoListCmd)
	undoCmd.AddCommand(undoDeleteCmd)
}
