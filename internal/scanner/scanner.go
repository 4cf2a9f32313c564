/*
Copyright © 2025 changheonshin
*/
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"tidy/internal/fsutil"
)

// BundleSuffixes mark opaque bundle-style directories that are treated as a
// single item and never descended into.
var BundleSuffixes = []string{".app", ".bundle", ".framework", ".plugin"}

// Item is a snapshot of one candidate filesystem entry, read once per scan and
// immutable for the duration of planning.
type Item struct {
	Path       string
	RelPath    string
	Name       string
	IsDir      bool
	IsSymlink  bool
	Size       int64
	ModifiedAt time.Time
	HasTag     bool
}

// LowerName returns the item name lowercased, used for ordering and matching.
func (i Item) LowerName() string {
	return strings.ToLower(i.Name)
}

// Options controls which entries under the source root become candidates.
type Options struct {
	// DestinationDir, when non-empty, is excluded from scanning along with
	// its whole subtree.
	DestinationDir      string
	IncludeSubfolders   bool
	IncludeFolders      bool
	IncludeEmptyFolders bool
	IncludeTagged       bool
	IgnoreTagged        bool
	IgnoreAliases       bool
	IgnoreFolders       bool
	SkipBundles         bool
	IgnoreExtensions    []string
	// IgnorePaths holds lowercased tokens compared against the relative path,
	// the base name, and the absolute path of every entry.
	IgnorePaths map[string]struct{}
	Verbose     bool
}

// Scanner enumerates candidate items under a source root.
type Scanner struct {
	fs    afero.Fs
	probe TagProbe
}

// NewScanner creates a new Scanner instance.
func NewScanner(fsys afero.Fs, probe TagProbe) *Scanner {
	return &Scanner{
		fs:    fsys,
		probe: probe,
	}
}

// Scan walks the source directory and returns the candidate items plus the
// number of entries that were excluded by policy. A missing or non-directory
// source is a fatal precondition and aborts before any work.
func (s *Scanner) Scan(sourceDir string, opts *Options) ([]Item, int, error) {
	sourceDir = filepath.Clean(sourceDir)
	isDir, err := afero.DirExists(s.fs, sourceDir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat source directory: %w", err)
	}
	if !isDir {
		return nil, 0, fmt.Errorf("source directory not found: %s", sourceDir)
	}

	if opts.IncludeSubfolders {
		return s.scanRecursive(sourceDir, opts)
	}
	return s.scanFlat(sourceDir, opts)
}

// scanFlat enumerates the immediate children of the source directory in
// case-insensitive name order.
func (s *Scanner) scanFlat(sourceDir string, opts *Options) ([]Item, int, error) {
	entries, err := afero.ReadDir(s.fs, sourceDir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read source directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var candidates []Item
	ignored := 0
	for _, entry := range entries {
		path := filepath.Join(sourceDir, entry.Name())
		if s.shouldSkip(path, sourceDir, opts) {
			ignored++
			continue
		}

		info, err := s.lstat(path)
		if err != nil {
			if fsutil.IsPermissionError(err) {
				ignored++
				continue
			}
			return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if info.IsDir() {
			if opts.SkipBundles && isBundle(entry.Name()) {
				ignored++
				continue
			}
			if !opts.IncludeFolders || opts.IgnoreFolders {
				ignored++
				continue
			}
			if opts.IncludeEmptyFolders && !s.isEmptyDir(path) {
				ignored++
				continue
			}
			item := s.buildItem(sourceDir, path, info, opts)
			if opts.IgnoreTagged && item.HasTag {
				ignored++
				continue
			}
			candidates = append(candidates, item)
			continue
		}

		item := s.buildItem(sourceDir, path, info, opts)
		if opts.IgnoreAliases && item.IsSymlink {
			ignored++
			continue
		}
		if opts.IgnoreTagged && item.HasTag {
			ignored++
			continue
		}
		if fsutil.MatchesExtension(item.Name, opts.IgnoreExtensions) {
			ignored++
			continue
		}
		candidates = append(candidates, item)
	}

	return candidates, ignored, nil
}

// scanRecursive walks the whole tree, pruning excluded subtrees before
// descending into them.
func (s *Scanner) scanRecursive(sourceDir string, opts *Options) ([]Item, int, error) {
	var candidates []Item
	ignored := 0

	err := afero.Walk(s.fs, sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if fsutil.IsPermissionError(err) {
				ignored++
				if opts.Verbose {
					fmt.Printf("permission denied, skipping: %s\n", path)
				}
				return nil
			}
			return err
		}
		if path == sourceDir {
			return nil
		}

		if info.IsDir() {
			if s.shouldSkip(path, sourceDir, opts) {
				ignored++
				return filepath.SkipDir
			}
			if opts.SkipBundles && isBundle(info.Name()) {
				ignored++
				if opts.Verbose {
					fmt.Printf("skipping bundle: %s\n", path)
				}
				return filepath.SkipDir
			}
			if !opts.IncludeFolders {
				return nil
			}
			if opts.IgnoreFolders {
				ignored++
				return nil
			}
			if opts.IncludeEmptyFolders && !s.isEmptyDir(path) {
				return nil
			}
			item := s.buildItem(sourceDir, path, info, opts)
			if opts.IgnoreTagged && item.HasTag {
				ignored++
				return nil
			}
			candidates = append(candidates, item)
			return nil
		}

		if s.shouldSkip(path, sourceDir, opts) {
			ignored++
			return nil
		}
		item := s.buildItem(sourceDir, path, info, opts)
		if opts.IgnoreAliases && item.IsSymlink {
			ignored++
			return nil
		}
		if opts.IgnoreTagged && item.HasTag {
			ignored++
			return nil
		}
		if fsutil.MatchesExtension(item.Name, opts.IgnoreExtensions) {
			ignored++
			return nil
		}
		candidates = append(candidates, item)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("error walking the path %s: %w", sourceDir, err)
	}

	return candidates, ignored, nil
}

// shouldSkip reports whether the entry is excluded outright: inside the
// destination subtree, or matched by an ignore token.
func (s *Scanner) shouldSkip(path, sourceDir string, opts *Options) bool {
	if opts.DestinationDir != "" {
		dest := filepath.Clean(opts.DestinationDir)
		if path == dest || strings.HasPrefix(path, dest+string(filepath.Separator)) {
			if opts.Verbose {
				fmt.Printf("skipping destination subtree: %s\n", path)
			}
			return true
		}
	}
	if len(opts.IgnorePaths) == 0 {
		return false
	}

	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	tokens := []string{
		strings.ToLower(filepath.ToSlash(rel)),
		strings.ToLower(filepath.Base(path)),
		strings.ToLower(path),
	}
	for _, token := range tokens {
		if _, ok := opts.IgnorePaths[token]; ok {
			if opts.Verbose {
				fmt.Printf("skipping ignored path: %s\n", path)
			}
			return true
		}
	}
	return false
}

// buildItem captures the metadata for one entry. The tag probe runs only when
// tag-based inclusion or exclusion is configured.
func (s *Scanner) buildItem(sourceDir, path string, info os.FileInfo, opts *Options) Item {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		rel = info.Name()
	}

	isDir := info.IsDir()
	size := info.Size()
	if isDir {
		size = 0
	}
	hasTag := false
	if opts.IncludeTagged || opts.IgnoreTagged {
		hasTag = s.probe.HasTag(path)
	}

	return Item{
		Path:       path,
		RelPath:    rel,
		Name:       info.Name(),
		IsDir:      isDir,
		IsSymlink:  info.Mode()&os.ModeSymlink != 0,
		Size:       size,
		ModifiedAt: info.ModTime(),
		HasTag:     hasTag,
	}
}

// lstat avoids following symlinks when the backing filesystem supports it.
func (s *Scanner) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return s.fs.Stat(path)
}

func (s *Scanner) isEmptyDir(path string) bool {
	entries, err := afero.ReadDir(s.fs, path)
	return err == nil && len(entries) == 0
}

func isBundle(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, suffix := range BundleSuffixes {
		if ext == suffix {
			return true
		}
	}
	return false
}
