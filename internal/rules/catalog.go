package rules

import (
	"fmt"
	"strings"

	"tidy/internal/fsutil"
)

// NewRule validates and normalizes a rule. The id is normalized to a lowercase
// identifier, the subfolder must be a non-empty relative path, and an enabled
// rule must carry at least one condition.
func NewRule(id, description, subfolder string, enabled, builtIn bool, mode Mode, conditions []Condition) (Rule, error) {
	normalizedID := fsutil.NormalizeIdentifier(id)
	if normalizedID == "" {
		return Rule{}, fmt.Errorf("rule id cannot be empty")
	}
	cleanedSubfolder := strings.Trim(strings.TrimSpace(subfolder), "/")
	if cleanedSubfolder == "" {
		return Rule{}, fmt.Errorf("rule '%s': subfolder cannot be empty", normalizedID)
	}
	if mode == "" {
		mode = ModeAll
	}
	if mode != ModeAll && mode != ModeAny {
		return Rule{}, fmt.Errorf("rule '%s': invalid mode '%s'", normalizedID, mode)
	}
	if enabled && len(conditions) == 0 {
		return Rule{}, fmt.Errorf("rule '%s': must have at least one condition", normalizedID)
	}

	normalized := make([]Condition, len(conditions))
	for i, cond := range conditions {
		normalized[i] = cond
		if cond.Type == ConditionExtensionAny {
			exts := make([]string, 0, len(cond.Values))
			for _, raw := range cond.Values {
				ext, err := fsutil.NormalizeExtension(raw)
				if err != nil {
					return Rule{}, fmt.Errorf("rule '%s': %w", normalizedID, err)
				}
				exts = append(exts, ext)
			}
			normalized[i].Values = exts
		}
	}

	return Rule{
		ID:          normalizedID,
		Description: strings.TrimSpace(description),
		Subfolder:   cleanedSubfolder,
		Enabled:     enabled,
		BuiltIn:     builtIn,
		Mode:        mode,
		Conditions:  normalized,
	}, nil
}

// mustRule backs the built-in table, which is known valid.
func mustRule(id, description, subfolder string, enabled bool, mode Mode, conditions ...Condition) Rule {
	rule, err := NewRule(id, description, subfolder, enabled, true, mode, conditions)
	if err != nil {
		panic(err)
	}
	return rule
}

// BuiltInRules returns the fixed, ordered built-in rule table. Folder and
// alias rules ship disabled; everything else is on by default. Callers get a
// fresh copy each time, so the table itself is never mutated.
func BuiltInRules() []Rule {
	return []Rule{
		mustRule("aliases", "Aliases", "Aliases", false, ModeAll, FlagCondition(ConditionIsAlias, true)),
		mustRule("folders", "Folders", "Folders", false, ModeAll, FlagCondition(ConditionIsFolder, true)),
		mustRule("screenshots", "Screenshots", "Screenshots", true, ModeAll,
			KindCondition("image"),
			NameContainsCondition("screenshot", "screen shot", "スクリーンショット"),
		),
		mustRule("png_images", "PNG Images", "Images/PNG", true, ModeAll, ExtCondition(".png")),
		mustRule("jpeg_images", "JPEG Images", "Images/JPEG", true, ModeAll, ExtCondition(".jpg", ".jpeg")),
		mustRule("gif_images", "GIF Images", "Images/GIF", true, ModeAll, ExtCondition(".gif")),
		mustRule("web_images", "Web Images", "Images/Web", true, ModeAll, ExtCondition(".webp", ".svg", ".avif")),
		mustRule("other_images", "Other Images", "Images/Other", true, ModeAll,
			ExtCondition(".bmp", ".heic", ".tif", ".tiff", ".ico", ".jfif")),
		mustRule("pdf_documents", "PDF Documents", "Documents/PDF", true, ModeAll, ExtCondition(".pdf")),
		mustRule("word_documents", "Word Documents", "Documents/Word", true, ModeAll,
			ExtCondition(".doc", ".docx", ".odt", ".pages", ".rtf", ".epub")),
		mustRule("plain_text", "Plain Text", "Documents/Text", true, ModeAll, ExtCondition(".txt", ".text")),
		mustRule("markdown", "Markdown", "Documents/Markdown", true, ModeAll, ExtCondition(".md", ".markdown")),
		mustRule("spreadsheets", "Spreadsheets", "Documents/Spreadsheets", true, ModeAll,
			ExtCondition(".xls", ".xlsx", ".csv", ".tsv", ".ods", ".numbers")),
		mustRule("presentations", "Presentations", "Documents/Presentations", true, ModeAll,
			ExtCondition(".ppt", ".pptx", ".pps", ".ppsx", ".key", ".odp")),
		mustRule("code", "Code", "Code", true, ModeAll,
			ExtCondition(
				".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".c", ".cpp", ".h", ".hpp",
				".go", ".rs", ".rb", ".php", ".swift", ".kt", ".json", ".sql", ".ini",
				".cfg", ".conf", ".toml", ".yaml", ".yml", ".xml", ".html", ".css",
				".scss", ".sh", ".zsh",
			)),
		mustRule("audio", "Audio", "Audio", true, ModeAll,
			ExtCondition(".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg", ".opus", ".aif", ".aiff")),
		mustRule("videos", "Videos", "Videos", true, ModeAll,
			ExtCondition(".mp4", ".mov", ".mkv", ".avi", ".wmv", ".webm", ".m4v", ".ts", ".mts")),
		mustRule("archives", "Archives", "Archives", true, ModeAll,
			ExtCondition(".zip", ".rar", ".7z", ".tar", ".gz", ".tar.gz", ".tgz", ".bz2", ".xz", ".zst", ".cab")),
		mustRule("disk_images", "Disk Images", "Disk Images", true, ModeAll, ExtCondition(".dmg", ".iso", ".img")),
		mustRule("installers", "Installers", "Installers", true, ModeAll,
			ExtCondition(".pkg", ".msi", ".exe", ".deb", ".rpm", ".apk")),
		mustRule("fonts", "Fonts", "Fonts", true, ModeAll, ExtCondition(".ttf", ".ttc", ".otf", ".woff", ".woff2")),
		mustRule("torrents", "Torrents", "Torrents", true, ModeAll, ExtCondition(".torrent")),
	}
}

// KindExtensions maps symbolic kinds to their extension sets. Folder and
// alias kinds are structural and resolved by the evaluator directly.
func KindExtensions() map[string][]string {
	return map[string][]string{
		"image": {
			".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".avif",
			".bmp", ".heic", ".tif", ".tiff", ".ico", ".jfif",
		},
		"image_png": {".png"},
		"document":  {".pdf", ".doc", ".docx", ".odt", ".pages", ".txt", ".rtf", ".md", ".markdown", ".epub"},
		"audio":     {".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg", ".opus", ".aif", ".aiff"},
		"video":     {".mp4", ".mov", ".mkv", ".avi", ".wmv", ".webm", ".m4v", ".ts", ".mts"},
		"archive":   {".zip", ".rar", ".7z", ".tar", ".gz", ".tar.gz", ".tgz", ".bz2", ".xz", ".zst", ".cab"},
		"code": {
			".py", ".js", ".ts", ".tsx", ".jsx", ".java", ".c", ".cpp", ".h", ".hpp",
			".go", ".rs", ".rb", ".php", ".swift", ".kt", ".json", ".sql", ".ini",
			".cfg", ".conf", ".toml", ".yaml", ".yml", ".xml", ".html", ".css",
			".scss", ".sh", ".zsh",
		},
	}
}

// Overrides describes how a configuration reshapes the built-in catalog.
// All rule references are normalized ids.
type Overrides struct {
	// ExtensionOverrides replaces a rule's conditions with a single
	// extension_any condition over the given list.
	ExtensionOverrides map[string][]string
	SubfolderOverrides map[string]string
	Enable             map[string]struct{}
	Disable            map[string]struct{}
	// Order lists ids that move to the front, in the given sequence. Rules
	// not listed keep their relative order and follow afterwards.
	Order       []string
	CustomRules []Rule
}

// RuleAliases maps every normalized id, description, and subfolder of the
// base rules back to the canonical rule id, so configs can reference rules by
// any of the three.
func RuleAliases(base []Rule) map[string]string {
	aliases := make(map[string]string, len(base)*3)
	for _, rule := range base {
		aliases[rule.ID] = rule.ID
		aliases[fsutil.NormalizeIdentifier(rule.Description)] = rule.ID
		aliases[fsutil.NormalizeIdentifier(rule.Subfolder)] = rule.ID
	}
	return aliases
}

// ApplyOverrides derives the active rule set from the base list: clone with
// subfolder and extension substitutions, apply enable/disable flags, append
// custom rules, then stably reorder if an explicit order was given. The base
// list is never modified; identical inputs always produce identical output.
func ApplyOverrides(base []Rule, overrides Overrides) []Rule {
	updated := make([]Rule, 0, len(base)+len(overrides.CustomRules))
	for _, rule := range base {
		clone := rule.Clone()
		if subfolder, ok := overrides.SubfolderOverrides[clone.ID]; ok {
			clone.Subfolder = subfolder
		}
		if exts, ok := overrides.ExtensionOverrides[clone.ID]; ok {
			clone.Conditions = []Condition{ExtCondition(exts...)}
		}
		if _, ok := overrides.Enable[clone.ID]; ok {
			clone.Enabled = true
		}
		if _, ok := overrides.Disable[clone.ID]; ok {
			clone.Enabled = false
		}
		updated = append(updated, clone)
	}
	updated = append(updated, overrides.CustomRules...)
	updated = dedupeByID(updated)

	if len(overrides.Order) == 0 {
		return updated
	}

	byID := make(map[string]Rule, len(updated))
	for _, rule := range updated {
		byID[rule.ID] = rule
	}
	ordered := make([]Rule, 0, len(updated))
	used := make(map[string]struct{}, len(overrides.Order))
	for _, id := range overrides.Order {
		if rule, ok := byID[id]; ok {
			if _, seen := used[id]; !seen {
				ordered = append(ordered, rule)
				used[id] = struct{}{}
			}
		}
	}
	for _, rule := range updated {
		if _, seen := used[rule.ID]; !seen {
			ordered = append(ordered, rule)
		}
	}
	return ordered
}

// dedupeByID keeps first-seen positions but lets a later registration with
// the same id replace the earlier rule's content.
func dedupeByID(ruleSet []Rule) []Rule {
	latest := make(map[string]Rule, len(ruleSet))
	for _, rule := range ruleSet {
		latest[rule.ID] = rule
	}
	deduped := make([]Rule, 0, len(ruleSet))
	seen := make(map[string]struct{}, len(ruleSet))
	for _, rule := range ruleSet {
		if _, ok := seen[rule.ID]; ok {
			continue
		}
		seen[rule.ID] = struct{}{}
		deduped = append(deduped, latest[rule.ID])
	}
	return deduped
}
