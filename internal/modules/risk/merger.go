package risk

import (
	"strings"

	"github.com/attunehealth/attune-backend/internal/types"
)

// Merge reconciles the model's assessment with the keyword scan. Severity and
// the safety-plan flag take the stricter of the two sources, so a keyword hit
// can raise but never lower a model-asserted level. Flag descriptions prefer
// the model's prose when both sources flag the same category.
func Merge(primary types.RiskAssessment, scan ScanResult) types.RiskAssessment {
	merged := types.RiskAssessment{
		Level:            types.MaxRiskLevel(primary.Level.Normalized(), scan.Level.Normalized()),
		SafetyPlanNeeded: primary.SafetyPlanNeeded || scan.HighRiskDetected,
		Notes:            primary.Notes,
		Flags:            []types.RiskFlag{},
	}

	scanByCategory := map[string]types.RiskFlag{}
	for _, f := range scan.Flags {
		scanByCategory[categoryKey(f.Category)] = f
	}

	mergedCategories := map[string]bool{}
	for _, f := range primary.Flags {
		key := categoryKey(f.Category)
		if sf, ok := scanByCategory[key]; ok {
			f.DetectedKeywords = unionKeywords(f.DetectedKeywords, sf.DetectedKeywords)
		}
		merged.Flags = append(merged.Flags, f)
		mergedCategories[key] = true
	}
	for _, f := range scan.Flags {
		if mergedCategories[categoryKey(f.Category)] {
			continue
		}
		merged.Flags = append(merged.Flags, f)
	}

	return merged
}

func categoryKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func unionKeywords(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, kw := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}
