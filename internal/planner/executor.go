package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ExecutedMove records one move that actually happened, in execution order.
// The slice feeds the transaction store so runs can be undone.
type ExecutedMove struct {
	From   string
	To     string
	RuleID string
}

// Executor applies a move plan to the filesystem. In dry-run mode it only
// reports what would happen.
type Executor struct {
	fs      afero.Fs
	apply   bool
	verbose bool
}

// NewExecutor creates a new Executor instance.
func NewExecutor(fsys afero.Fs, apply, verbose bool) *Executor {
	return &Executor{
		fs:      fsys,
		apply:   apply,
		verbose: verbose,
	}
}

// Execute performs the planned moves in order. Failures on individual moves
// are counted and reported but never abort the run; every remaining move is
// still attempted.
func (e *Executor) Execute(plan []MovePlan, summary *Summary) []ExecutedMove {
	var executed []ExecutedMove
	for _, move := range plan {
		if !e.apply {
			fmt.Printf("DRY-RUN [%s]: %s -> %s\n", move.RuleID, move.Source, move.Destination)
			continue
		}

		if err := e.fs.MkdirAll(filepath.Dir(move.Destination), 0755); err != nil {
			fmt.Printf("ERROR [%s]: %s: %v\n", move.RuleID, move.Source, err)
			summary.Errors++
			continue
		}
		if err := e.fs.Rename(move.Source, move.Destination); err != nil {
			fmt.Printf("ERROR [%s]: %s: %v\n", move.RuleID, move.Source, err)
			summary.Errors++
			continue
		}

		summary.Moved++
		executed = append(executed, ExecutedMove{From: move.Source, To: move.Destination, RuleID: move.RuleID})
		if e.verbose {
			fmt.Printf("MOVE [%s]: %s -> %s\n", move.RuleID, move.Source, move.Destination)
		}
	}
	return executed
}

// DatedDestination nests the destination under a per-run timestamp folder.
func DatedDestination(destinationDir string, now time.Time) string {
	return filepath.Join(destinationDir, now.Format("2006-01-02_15-04-05"))
}

// RemoveEmptyDirs deletes directories under root that became empty, deepest
// first so parents emptied by the pass are removed too. The root itself and
// the excluded paths (typically the destination subtree) are never removed.
// Returns the removed paths in removal order.
func RemoveEmptyDirs(fsys afero.Fs, root string, excluded map[string]struct{}) []string {
	root = filepath.Clean(root)
	var dirs []string
	_ = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() || path == root {
			return nil
		}
		if isExcluded(path, excluded) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	var removed []string
	for _, dir := range dirs {
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := fsys.Remove(dir); err == nil {
			removed = append(removed, dir)
		}
	}
	return removed
}

func isExcluded(path string, excluded map[string]struct{}) bool {
	for candidate := range excluded {
		candidate = filepath.Clean(candidate)
		if path == candidate || strings.HasPrefix(path, candidate+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
