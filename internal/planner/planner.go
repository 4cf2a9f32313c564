package planner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"tidy/internal/fsutil"
	"tidy/internal/rules"
	"tidy/internal/scanner"
)

// MovePlan is one planned move, fully resolved: the destination already
// accounts for collisions with existing files and with earlier moves in the
// same plan.
type MovePlan struct {
	Source           string
	Destination      string
	RuleID           string
	RuleDescription  string
	CollisionRenamed bool
}

// Summary aggregates the counters of one run. Planning fills the classification
// counters; execution fills Moved and Errors afterwards.
type Summary struct {
	Scanned      int            `json:"scanned"`
	Ignored      int            `json:"ignored"`
	TotalTargets int            `json:"total_targets"`
	Matched      int            `json:"matched"`
	Unclassified int            `json:"unclassified"`
	Fallback     int            `json:"fallback"`
	RuleHits     map[string]int `json:"rule_hits"`
	PlannedMoves int            `json:"planned_moves"`
	Moved        int            `json:"moved"`
	Collisions   int            `json:"collisions"`
	Errors       int            `json:"errors"`
	RulesUsed    int            `json:"rules_used"`
}

// Planner turns scanned items into a collision-free move plan.
type Planner struct {
	fs        afero.Fs
	evaluator *rules.Evaluator
}

// NewPlanner creates a new Planner instance.
func NewPlanner(fsys afero.Fs, evaluator *rules.Evaluator) *Planner {
	return &Planner{
		fs:        fsys,
		evaluator: evaluator,
	}
}

// Plan matches every item against the rule set in priority order and resolves
// each destination. Items are planned deepest-first so nested entries move
// before their parent folders. The returned plan is deterministic for a given
// input; no filesystem mutation happens here. Scanned counts candidates only;
// entries excluded by scan policy appear in Ignored.
func (p *Planner) Plan(items []scanner.Item, ignored int, ruleSet []rules.Rule, destinationDir string) ([]MovePlan, Summary) {
	summary := Summary{
		Scanned:      len(items),
		Ignored:      ignored,
		TotalTargets: len(items),
		RuleHits:     make(map[string]int, len(ruleSet)),
	}
	for _, rule := range ruleSet {
		if rule.Enabled {
			summary.RuleHits[rule.ID] = 0
		}
	}

	ordered := make([]scanner.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := depth(ordered[i]), depth(ordered[j])
		if di != dj {
			return di > dj
		}
		return ordered[i].LowerName() > ordered[j].LowerName()
	})

	var plan []MovePlan
	claimed := make(map[string]struct{})
	for _, item := range ordered {
		rule, ok := p.evaluator.FirstMatch(ruleSet, item)
		if !ok {
			continue
		}
		summary.Matched++
		summary.RuleHits[rule.ID]++
		if rules.IsFallbackRule(rule.ID) {
			summary.Fallback++
		}

		target := filepath.Join(destinationDir, filepath.FromSlash(rule.Subfolder), item.Name)
		if target == item.Path {
			continue
		}
		resolved, renamed := fsutil.ResolveCollision(p.fs, target, claimed)
		claimed[resolved] = struct{}{}
		if renamed {
			summary.Collisions++
		}
		plan = append(plan, MovePlan{
			Source:           item.Path,
			Destination:      resolved,
			RuleID:           rule.ID,
			RuleDescription:  rule.Description,
			CollisionRenamed: renamed,
		})
	}

	summary.PlannedMoves = len(plan)
	summary.Unclassified = summary.Scanned - summary.Matched
	for _, hits := range summary.RuleHits {
		if hits > 0 {
			summary.RulesUsed++
		}
	}
	return plan, summary
}

// depth counts path separators in the relative path, so deeper entries sort
// first.
func depth(item scanner.Item) int {
	return strings.Count(filepath.ToSlash(item.RelPath), "/")
}
