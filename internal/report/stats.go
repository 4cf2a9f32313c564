package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"tidy/internal/planner"
	"tidy/internal/rules"
)

// RuleHit is one rule's hit count, in active priority order.
type RuleHit struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Subfolder   string `json:"subfolder"`
	Hits        int    `json:"hits"`
}

// Stats is the machine-readable report of one run.
type Stats struct {
	GeneratedAt          string                   `json:"generated_at"`
	Mode                 string                   `json:"mode"`
	SourceDir            string                   `json:"source_dir"`
	DestinationDir       string                   `json:"destination_dir"`
	TotalTargets         int                      `json:"total_targets"`
	RuleHits             []RuleHit                `json:"rule_hits"`
	RuleHitsNonzero      []RuleHit                `json:"rule_hits_nonzero"`
	Unclassified         int                      `json:"unclassified"`
	Fallback             int                      `json:"fallback"`
	PriorityOptimization rules.OptimizationReport `json:"priority_optimization"`
	Summary              planner.Summary          `json:"summary"`
}

// BuildStats assembles the report from a finished run. Rule hits follow the
// active rule order; disabled rules are omitted.
func BuildStats(generatedAt time.Time, apply bool, sourceDir, destinationDir string,
	ruleSet []rules.Rule, summary planner.Summary, optimization rules.OptimizationReport) Stats {

	mode := "dry-run"
	if apply {
		mode = "apply"
	}

	stats := Stats{
		GeneratedAt:          generatedAt.Format(time.RFC3339),
		Mode:                 mode,
		SourceDir:            sourceDir,
		DestinationDir:       destinationDir,
		TotalTargets:         summary.TotalTargets,
		Unclassified:         summary.Unclassified,
		Fallback:             summary.Fallback,
		PriorityOptimization: optimization,
		Summary:              summary,
	}
	for _, rule := range ruleSet {
		if !rule.Enabled {
			continue
		}
		hit := RuleHit{
			RuleID:      rule.ID,
			Description: rule.Description,
			Subfolder:   rule.Subfolder,
			Hits:        summary.RuleHits[rule.ID],
		}
		stats.RuleHits = append(stats.RuleHits, hit)
		if hit.Hits > 0 {
			stats.RuleHitsNonzero = append(stats.RuleHitsNonzero, hit)
		}
	}
	return stats
}

// WriteStats writes the report as indented JSON, creating parent directories
// as needed.
func WriteStats(fsys afero.Fs, path string, stats Stats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create stats directory: %w", err)
		}
	}
	if err := afero.WriteFile(fsys, path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
