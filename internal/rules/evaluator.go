package rules

import (
	"strings"
	"time"

	"tidy/internal/fsutil"
	"tidy/internal/scanner"
)

// Evaluator evaluates rule conditions against scanned items. It is pure: the
// reference time and kind table are fixed at construction, so evaluating the
// same item twice always yields the same answer.
type Evaluator struct {
	referenceTime time.Time
	kinds         map[string][]string
}

// NewEvaluator creates an evaluator pinned to the given reference time.
func NewEvaluator(referenceTime time.Time) *Evaluator {
	return &Evaluator{
		referenceTime: referenceTime,
		kinds:         KindExtensions(),
	}
}

// EvaluateCondition evaluates a single condition against one item. Unknown
// condition types never match rather than erroring.
func (e *Evaluator) EvaluateCondition(cond Condition, item scanner.Item) bool {
	switch cond.Type {
	case ConditionExtensionAny:
		return !item.IsDir && fsutil.MatchesExtension(item.Name, cond.Values)
	case ConditionNameContains:
		return e.evaluateNameContains(cond, item)
	case ConditionKind:
		return e.evaluateKind(cond.Kind, item)
	case ConditionCreatedWithinDays:
		cutoff := e.referenceTime.Add(-time.Duration(cond.Days * float64(24*time.Hour)))
		return !item.ModifiedAt.Before(cutoff)
	case ConditionSizeGTE:
		return item.Size >= cond.Size
	case ConditionSizeLTE:
		return item.Size <= cond.Size
	case ConditionIsFolder:
		return item.IsDir == cond.Flag
	case ConditionIsAlias:
		return item.IsSymlink == cond.Flag
	case ConditionHasTag:
		return item.HasTag == cond.Flag
	default:
		return false
	}
}

// evaluateNameContains matches any of the listed substrings, case-insensitive.
func (e *Evaluator) evaluateNameContains(cond Condition, item scanner.Item) bool {
	lowerName := item.LowerName()
	for _, sub := range cond.Values {
		if sub == "" {
			continue
		}
		if strings.Contains(lowerName, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// evaluateKind resolves a symbolic kind: folder and alias are structural
// checks, everything else is an extension-set membership via the kind table.
func (e *Evaluator) evaluateKind(kind string, item scanner.Item) bool {
	switch normalized := fsutil.NormalizeIdentifier(kind); normalized {
	case "folder":
		return item.IsDir
	case "alias", "symlink":
		return item.IsSymlink
	default:
		extensions, ok := e.kinds[normalized]
		if !ok {
			return false
		}
		return !item.IsDir && fsutil.MatchesExtension(item.Name, extensions)
	}
}

// MatchesRule reports whether an item satisfies a rule: mode "all" requires
// every condition, mode "any" at least one. Disabled rules and rules without
// conditions never match.
func (e *Evaluator) MatchesRule(rule Rule, item scanner.Item) bool {
	if !rule.Enabled || len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		matched := e.EvaluateCondition(cond, item)
		if rule.Mode == ModeAny && matched {
			return true
		}
		if rule.Mode != ModeAny && !matched {
			return false
		}
	}
	return rule.Mode != ModeAny
}

// FirstMatch returns the first enabled rule in catalog order that matches the
// item. Order is the authoritative priority.
func (e *Evaluator) FirstMatch(ruleSet []Rule, item scanner.Item) (Rule, bool) {
	for _, rule := range ruleSet {
		if e.MatchesRule(rule, item) {
			return rule, true
		}
	}
	return Rule{}, false
}
