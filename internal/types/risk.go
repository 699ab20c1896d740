package types

import "strings"

// RiskLevel is the ordinal severity classification for clinical safety
// concerns. Ordering is low < moderate < high.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelHigh     RiskLevel = "high"
)

// Rank maps levels onto their ordering. Unknown values rank as low so a
// malformed model output can never inflate severity by accident; it can only
// be raised by an explicit flag.
func (l RiskLevel) Rank() int {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(string(l)))) {
	case RiskLevelHigh:
		return 2
	case RiskLevelModerate:
		return 1
	default:
		return 0
	}
}

// MaxRiskLevel returns the higher of two levels under low < moderate < high.
func MaxRiskLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b.Normalized()
	}
	return a.Normalized()
}

// Normalized folds casing and unknown values to a canonical level.
func (l RiskLevel) Normalized() RiskLevel {
	switch l.Rank() {
	case 2:
		return RiskLevelHigh
	case 1:
		return RiskLevelModerate
	default:
		return RiskLevelLow
	}
}

type RiskFlag struct {
	Category         string   `json:"category"`
	Description      string   `json:"description"`
	DetectedKeywords []string `json:"detected_keywords,omitempty"`
}

type RiskAssessment struct {
	Level            RiskLevel  `json:"level"`
	Flags            []RiskFlag `json:"flags"`
	SafetyPlanNeeded bool       `json:"safety_plan_needed"`
	Notes            string     `json:"notes"`
}
