package fsutil

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var identifierPattern = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeIdentifier lowercases a rule reference and collapses every run of
// non-alphanumeric characters to a single underscore.
func NormalizeIdentifier(value string) string {
	normalized := identifierPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "_")
	return strings.Trim(normalized, "_")
}

// NormalizeExtension lowercases an extension and guarantees a leading dot.
func NormalizeExtension(raw string) (string, error) {
	ext := strings.ToLower(strings.TrimSpace(raw))
	if ext == "" {
		return "", fmt.Errorf("extension cannot be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext, nil
}

// MatchesExtension reports whether the filename ends with any of the given
// extensions. The longest matching suffix wins, so ".tar.gz" takes precedence
// over ".gz" for "archive.tar.gz". Unparseable extensions are skipped.
func MatchesExtension(filename string, extensions []string) bool {
	lowerName := strings.ToLower(filename)
	best := ""
	for _, raw := range extensions {
		ext, err := NormalizeExtension(raw)
		if err != nil {
			continue
		}
		if strings.HasSuffix(lowerName, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	return best != ""
}

// SplitBaseAndSuffix splits a filename into its base and full compound suffix
// ("archive.tar.gz" -> "archive", ".tar.gz"). Dotfiles keep their name intact.
func SplitBaseAndSuffix(filename string) (string, string) {
	if len(filename) < 2 {
		return filename, ""
	}
	idx := strings.Index(filename[1:], ".")
	if idx < 0 {
		return filename, ""
	}
	idx++ // account for the skipped leading byte
	return filename[:idx], filename[idx:]
}

// ResolveCollision returns a destination path that neither exists on the
// filesystem nor is claimed by an earlier move in the same run. When the
// candidate is taken, a parenthesized index is inserted before the suffix
// ("doc.pdf" -> "doc (1).pdf") and the second return value is true.
func ResolveCollision(fsys afero.Fs, target string, claimed map[string]struct{}) (string, bool) {
	if free(fsys, target, claimed) {
		return target, false
	}

	dir := filepath.Dir(target)
	base, suffix := SplitBaseAndSuffix(filepath.Base(target))
	for index := 1; ; index++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, index, suffix))
		if free(fsys, candidate, claimed) {
			return candidate, true
		}
	}
}

func free(fsys afero.Fs, target string, claimed map[string]struct{}) bool {
	if _, taken := claimed[target]; taken {
		return false
	}
	exists, err := afero.Exists(fsys, target)
	return err == nil && !exists
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
