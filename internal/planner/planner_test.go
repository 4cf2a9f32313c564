package planner

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidy/internal/rules"
	"tidy/internal/scanner"
)

var planNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newPlanner(fs afero.Fs) *Planner {
	return NewPlanner(fs, rules.NewEvaluator(planNow))
}

func item(relPath string) scanner.Item {
	name := relPath
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '/' {
			name = relPath[i+1:]
			break
		}
	}
	return scanner.Item{
		Path:       "/downloads/" + relPath,
		RelPath:    relPath,
		Name:       name,
		ModifiedAt: planNow,
	}
}

func TestPlan_MatchesAndCounters(t *testing.T) {
	fs := afero.NewMemMapFs()
	items := []scanner.Item{item("photo.png"), item("report.pdf"), item("mystery.xyz")}

	plan, summary := newPlanner(fs).Plan(items, 2, rules.BuiltInRules(), "/downloads/Organized")

	require.Len(t, plan, 2)
	assert.Equal(t, 3, summary.Scanned, "scanned counts candidates, not ignored entries")
	assert.Equal(t, 2, summary.Ignored)
	assert.Equal(t, 3, summary.TotalTargets)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.Unclassified)
	assert.Equal(t, 2, summary.PlannedMoves)
	assert.Equal(t, 0, summary.Collisions)
	assert.Equal(t, 2, summary.RulesUsed)
	assert.Equal(t, 1, summary.RuleHits["png_images"])
	assert.Equal(t, 1, summary.RuleHits["pdf_documents"])
	assert.Equal(t, 0, summary.RuleHits["videos"], "enabled rules are seeded at zero")

	bySource := map[string]MovePlan{}
	for _, move := range plan {
		bySource[move.Source] = move
	}
	assert.Equal(t, "/downloads/Organized/Images/PNG/photo.png", bySource["/downloads/photo.png"].Destination)
	assert.Equal(t, "png_images", bySource["/downloads/photo.png"].RuleID)
	assert.Equal(t, "/downloads/Organized/Documents/PDF/report.pdf", bySource["/downloads/report.pdf"].Destination)
}

func TestPlan_DeepestFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	items := []scanner.Item{
		item("a.png"),
		item("nested/deep/b.png"),
		item("nested/c.png"),
	}

	plan, _ := newPlanner(fs).Plan(items, 0, rules.BuiltInRules(), "/dest")

	require.Len(t, plan, 3)
	assert.Equal(t, "/downloads/nested/deep/b.png", plan[0].Source)
	assert.Equal(t, "/downloads/nested/c.png", plan[1].Source)
	assert.Equal(t, "/downloads/a.png", plan[2].Source)
}

func TestPlan_CollisionWithExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/dest/Images/PNG/photo.png", []byte("old"), 0644)

	plan, summary := newPlanner(fs).Plan([]scanner.Item{item("photo.png")}, 0, rules.BuiltInRules(), "/dest")

	require.Len(t, plan, 1)
	assert.Equal(t, "/dest/Images/PNG/photo (1).png", plan[0].Destination)
	assert.True(t, plan[0].CollisionRenamed)
	assert.Equal(t, 1, summary.Collisions)
}

func TestPlan_CollisionWithinRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	items := []scanner.Item{item("photo.png"), item("sub/photo.png")}

	plan, summary := newPlanner(fs).Plan(items, 0, rules.BuiltInRules(), "/dest")

	require.Len(t, plan, 2)
	destinations := []string{plan[0].Destination, plan[1].Destination}
	assert.Contains(t, destinations, "/dest/Images/PNG/photo.png")
	assert.Contains(t, destinations, "/dest/Images/PNG/photo (1).png")
	assert.Equal(t, 1, summary.Collisions)
}

func TestPlan_FallbackRuleCounted(t *testing.T) {
	fs := afero.NewMemMapFs()
	fallback, err := rules.NewRule("custom_mime_fallback", "Everything else", "Other", true, false, rules.ModeAny,
		[]rules.Condition{rules.NameContainsCondition(".")})
	require.NoError(t, err)
	active := append(rules.BuiltInRules(), fallback)

	plan, summary := newPlanner(fs).Plan([]scanner.Item{item("mystery.xyz")}, 0, active, "/dest")

	require.Len(t, plan, 1)
	assert.Equal(t, "custom_mime_fallback", plan[0].RuleID)
	assert.Equal(t, 1, summary.Fallback)
	assert.Equal(t, 0, summary.Unclassified)
}

func TestPlan_SourceEqualsDestinationSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	already := scanner.Item{
		Path:       "/dest/Images/PNG/photo.png",
		RelPath:    "photo.png",
		Name:       "photo.png",
		ModifiedAt: planNow,
	}

	plan, summary := newPlanner(fs).Plan([]scanner.Item{already}, 0, rules.BuiltInRules(), "/dest")

	assert.Empty(t, plan, "no move when the file is already in place")
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 0, summary.PlannedMoves)
}

func TestPlan_Deterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	items := []scanner.Item{item("b.png"), item("a.png"), item("nested/c.png")}

	first, firstSummary := newPlanner(fs).Plan(items, 0, rules.BuiltInRules(), "/dest")
	second, secondSummary := newPlanner(fs).Plan(items, 0, rules.BuiltInRules(), "/dest")
	assert.Equal(t, first, second)
	assert.Equal(t, firstSummary, secondSummary)
}
