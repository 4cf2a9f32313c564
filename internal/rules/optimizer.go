package rules

import (
	"math"
	"sort"
	"strings"
)

// OptimizationStrategy names the scoring heuristic in reports.
const OptimizationStrategy = "specificity_v1"

const disabledScore = -1_000_000.0

// IsFallbackRule identifies a user-defined catch-all rule. It is kept last
// even when optimization runs, so it never shadows specific rules, and its
// hits are tallied separately.
func IsFallbackRule(id string) bool {
	return id == "mime_fallback" || strings.HasSuffix(id, "_mime_fallback")
}

// RuleScore records one rule's position in the optimization outcome.
type RuleScore struct {
	RuleID         string  `json:"rule_id"`
	Description    string  `json:"description"`
	Score          float64 `json:"score"`
	OriginalIndex  int     `json:"original_index"`
	OptimizedIndex int     `json:"optimized_index"`
}

// OptimizationReport describes a priority-optimization pass, purely
// informational: before/after order and per-rule scores.
type OptimizationReport struct {
	Enabled     bool        `json:"enabled"`
	Strategy    string      `json:"strategy"`
	Changed     bool        `json:"changed"`
	BeforeOrder []string    `json:"before_order"`
	AfterOrder  []string    `json:"after_order"`
	Scores      []RuleScore `json:"scores"`
}

// NewOptimizationReport builds the no-op report used when optimization is off.
func NewOptimizationReport(ruleSet []Rule) OptimizationReport {
	order := ruleIDs(ruleSet)
	return OptimizationReport{
		Strategy:    OptimizationStrategy,
		BeforeOrder: order,
		AfterOrder:  append([]string(nil), order...),
	}
}

// ConditionSpecificity scores one condition. Narrow extension lists score
// highest, symbolic kinds lowest; unknown condition types score zero.
func ConditionSpecificity(cond Condition) float64 {
	switch cond.Type {
	case ConditionExtensionAny:
		count := len(cond.Values)
		if count < 1 {
			count = 1
		}
		return 120.0 / float64(count)
	case ConditionNameContains:
		useful := 0
		for _, sub := range cond.Values {
			if strings.TrimSpace(sub) != "" {
				useful++
			}
		}
		if useful > 5 {
			useful = 5
		}
		return 70.0 + float64(useful)*4.0
	case ConditionCreatedWithinDays, ConditionSizeGTE, ConditionSizeLTE:
		return 45.0
	case ConditionHasTag, ConditionIsAlias, ConditionIsFolder:
		return 40.0
	case ConditionKind:
		return 35.0
	default:
		return 0.0
	}
}

// RuleSpecificity scores a whole rule: the sum of its condition scores plus
// fixed bonuses for conjunctive mode, user-defined rules, and condition count.
// Disabled rules score effectively negative-infinite.
func RuleSpecificity(rule Rule) float64 {
	if !rule.Enabled {
		return disabledScore
	}

	score := 0.0
	for _, cond := range rule.Conditions {
		score += ConditionSpecificity(cond)
	}
	if rule.Mode == ModeAll {
		score += 12.0
	}
	if !rule.BuiltIn {
		score += 6.0
	}
	count := len(rule.Conditions)
	if count > 5 {
		count = 5
	}
	score += float64(count) * 3.0

	if IsFallbackRule(rule.ID) {
		score += disabledScore
	}
	return score
}

// OptimizePriority reorders enabled rules by descending specificity score,
// ties broken by original index (stable). Disabled rules keep their relative
// order at the end and are excluded from scoring. Matching semantics are
// untouched; only priority among competing rules changes.
func OptimizePriority(ruleSet []Rule) ([]Rule, OptimizationReport) {
	report := OptimizationReport{
		Enabled:     true,
		Strategy:    OptimizationStrategy,
		BeforeOrder: ruleIDs(ruleSet),
	}

	type scored struct {
		rule  Rule
		score float64
		index int
	}
	var enabled []scored
	var disabled []Rule
	for index, rule := range ruleSet {
		if rule.Enabled {
			enabled = append(enabled, scored{rule: rule, score: RuleSpecificity(rule), index: index})
		} else {
			disabled = append(disabled, rule)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].score > enabled[j].score
	})

	optimized := make([]Rule, 0, len(ruleSet))
	positions := make(map[string]int, len(enabled))
	for pos, entry := range enabled {
		optimized = append(optimized, entry.rule)
		positions[entry.rule.ID] = pos
	}
	optimized = append(optimized, disabled...)

	report.AfterOrder = ruleIDs(optimized)
	report.Changed = !equalOrder(report.BeforeOrder, report.AfterOrder)
	for _, entry := range enabled {
		report.Scores = append(report.Scores, RuleScore{
			RuleID:         entry.rule.ID,
			Description:    entry.rule.Description,
			Score:          math.Round(entry.score*1000) / 1000,
			OriginalIndex:  entry.index,
			OptimizedIndex: positions[entry.rule.ID],
		})
	}

	return optimized, report
}

func ruleIDs(ruleSet []Rule) []string {
	ids := make([]string, len(ruleSet))
	for i, rule := range ruleSet {
		ids[i] = rule.ID
	}
	return ids
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
