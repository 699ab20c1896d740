package risk

import (
	"regexp"
	"strings"

	"github.com/attunehealth/attune-backend/internal/observability"
	"github.com/attunehealth/attune-backend/internal/types"
)

// ScanResult is the keyword scanner's read of one text. It is merged with the
// model's assessment and never shown to users on its own.
type ScanResult struct {
	Level            types.RiskLevel  `json:"level"`
	Flags            []types.RiskFlag `json:"flags"`
	HighRiskDetected bool             `json:"high_risk_detected"`
}

type riskCategory struct {
	name     string
	severity types.RiskLevel
	patterns []*regexp.Regexp
}

// The category table is fixed and ordered; flags come back in this order.
// Patterns are matched case-insensitively against the raw text.
var riskCategories = []riskCategory{
	{
		name:     "Suicidal ideation",
		severity: types.RiskLevelHigh,
		patterns: compilePatterns(
			`kill(?:ing)? myself`,
			`suicid\w*`,
			`end(?:ing)? my life`,
			`better off dead`,
			`don'?t want to (?:live|be alive)`,
			`no reason to live`,
		),
	},
	{
		name:     "Self-harm",
		severity: types.RiskLevelHigh,
		patterns: compilePatterns(
			`self[- ]harm\w*`,
			`cut(?:ting)? myself`,
			`hurt(?:ing)? myself`,
			`burn(?:ing)? myself`,
		),
	},
	{
		name:     "Harm to others",
		severity: types.RiskLevelHigh,
		patterns: compilePatterns(
			`kill (?:him|her|them|someone)`,
			`hurt (?:him|her|them|someone)`,
			`homicid\w*`,
			`violent (?:thoughts|urges)`,
		),
	},
	{
		name:     "Substance use",
		severity: types.RiskLevelModerate,
		patterns: compilePatterns(
			`relaps\w*`,
			`overdos\w*`,
			`drinking again`,
			`using again`,
			`blackout drunk`,
		),
	},
	{
		name:     "Hopelessness",
		severity: types.RiskLevelModerate,
		patterns: compilePatterns(
			`hopeless\w*`,
			`worthless\w*`,
			`no point (?:in|to) anything`,
			`nothing matters`,
		),
	},
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}

// Scan matches the text against the fixed category table. Every matched
// category becomes one flag carrying its deduplicated matched substrings.
// Level is the highest matched severity, low when nothing matched.
func Scan(text string) ScanResult {
	result := ScanResult{Level: types.RiskLevelLow, Flags: []types.RiskFlag{}}
	if strings.TrimSpace(text) == "" {
		return result
	}
	metrics := observability.Current()

	for _, cat := range riskCategories {
		seen := map[string]bool{}
		var keywords []string
		for _, pat := range cat.patterns {
			for _, m := range pat.FindAllString(text, -1) {
				key := strings.ToLower(strings.TrimSpace(m))
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				keywords = append(keywords, key)
			}
		}
		if len(keywords) == 0 {
			continue
		}
		result.Flags = append(result.Flags, types.RiskFlag{
			Category:         cat.name,
			Description:      "Keyword scan matched " + strings.ToLower(cat.name) + " language.",
			DetectedKeywords: keywords,
		})
		result.Level = types.MaxRiskLevel(result.Level, cat.severity)
		if cat.severity == types.RiskLevelHigh {
			result.HighRiskDetected = true
		}
		metrics.IncRiskFlag(cat.name, string(cat.severity))
	}
	return result
}
