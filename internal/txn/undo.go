package txn

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"tidy/internal/fsutil"
)

// UndoResult aggregates the counters of one undo pass.
type UndoResult struct {
	Restored   int
	Collisions int
	Errors     int
}

// PickTransaction selects the transaction to undo: the newest pending one
// when no id is given, otherwise the exact record.
func PickTransaction(records []Transaction, id string) (Transaction, error) {
	if id == "" {
		for _, record := range records {
			if record.Pending() {
				return record, nil
			}
		}
		return Transaction{}, fmt.Errorf("no pending transaction to undo")
	}
	for _, record := range records {
		if record.ID == id {
			if !record.Pending() {
				return Transaction{}, fmt.Errorf("transaction '%s' was already undone", id)
			}
			return record, nil
		}
	}
	return Transaction{}, fmt.Errorf("transaction '%s' not found", id)
}

// UndoTransaction replays a transaction's moves in reverse order, restoring
// each file to its original location. Original locations that are occupied
// again get a collision-renamed path instead of being overwritten. Directories
// removed by the original run are recreated first. A missing moved file counts
// as an error but never aborts the pass.
func UndoTransaction(fsys afero.Fs, record Transaction, apply bool) UndoResult {
	var result UndoResult

	if apply {
		for _, dir := range record.RemovedDirs {
			if err := fsys.MkdirAll(dir, 0755); err != nil {
				fmt.Printf("ERROR: failed to recreate %s: %v\n", dir, err)
				result.Errors++
			}
		}
	}

	claimed := make(map[string]struct{})
	for i := len(record.Moves) - 1; i >= 0; i-- {
		move := record.Moves[i]

		exists, err := afero.Exists(fsys, move.To)
		if err != nil || !exists {
			fmt.Printf("ERROR: missing moved file: %s\n", move.To)
			result.Errors++
			continue
		}

		// Resolved in dry-run too, so the preview names the same target the
		// apply pass would use.
		target, renamed := fsutil.ResolveCollision(fsys, move.From, claimed)
		claimed[target] = struct{}{}
		if renamed {
			result.Collisions++
		}

		if !apply {
			fmt.Printf("DRY-RUN [undo]: %s -> %s\n", move.To, target)
			continue
		}

		if err := fsys.MkdirAll(filepath.Dir(target), 0755); err != nil {
			fmt.Printf("ERROR: %s: %v\n", move.To, err)
			result.Errors++
			continue
		}
		if err := fsys.Rename(move.To, target); err != nil {
			fmt.Printf("ERROR: %s: %v\n", move.To, err)
			result.Errors++
			continue
		}
		result.Restored++
	}

	return result
}
