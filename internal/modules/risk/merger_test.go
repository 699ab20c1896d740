package risk

import (
	"testing"

	"github.com/attunehealth/attune-backend/internal/types"
)

func TestMergeTakesHigherLevel(t *testing.T) {
	cases := []struct {
		name    string
		primary types.RiskLevel
		scan    types.RiskLevel
		want    types.RiskLevel
	}{
		{"scan raises", types.RiskLevelLow, types.RiskLevelHigh, types.RiskLevelHigh},
		{"primary holds", types.RiskLevelHigh, types.RiskLevelLow, types.RiskLevelHigh},
		{"moderate over low", types.RiskLevelLow, types.RiskLevelModerate, types.RiskLevelModerate},
		{"equal", types.RiskLevelModerate, types.RiskLevelModerate, types.RiskLevelModerate},
	}
	for _, tc := range cases {
		got := Merge(
			types.RiskAssessment{Level: tc.primary},
			ScanResult{Level: tc.scan},
		)
		if got.Level != tc.want {
			t.Fatalf("%s: want=%s got=%s", tc.name, tc.want, got.Level)
		}
	}
}

func TestMergeNeverDowngrades(t *testing.T) {
	got := Merge(
		types.RiskAssessment{Level: types.RiskLevelHigh, SafetyPlanNeeded: true},
		ScanResult{Level: types.RiskLevelLow},
	)
	if got.Level != types.RiskLevelHigh {
		t.Fatalf("level downgraded: got=%s", got.Level)
	}
	if !got.SafetyPlanNeeded {
		t.Fatalf("safety plan dropped")
	}
}

func TestMergeSafetyPlanFromEitherSource(t *testing.T) {
	fromScan := Merge(
		types.RiskAssessment{Level: types.RiskLevelLow, SafetyPlanNeeded: false},
		ScanResult{Level: types.RiskLevelHigh, HighRiskDetected: true},
	)
	if !fromScan.SafetyPlanNeeded {
		t.Fatalf("scan high-risk hit should force safety plan")
	}

	fromPrimary := Merge(
		types.RiskAssessment{Level: types.RiskLevelLow, SafetyPlanNeeded: true},
		ScanResult{Level: types.RiskLevelLow},
	)
	if !fromPrimary.SafetyPlanNeeded {
		t.Fatalf("primary safety plan request should survive merge")
	}
}

func TestMergeUnionsFlagsByCategory(t *testing.T) {
	primary := types.RiskAssessment{
		Level: types.RiskLevelModerate,
		Flags: []types.RiskFlag{
			{Category: "Suicidal ideation", Description: "Client described passive ideation without plan.", DetectedKeywords: []string{"passive ideation"}},
			{Category: "Isolation", Description: "Withdrawing from supports.", DetectedKeywords: []string{"alone"}},
		},
	}
	scan := ScanResult{
		Level:            types.RiskLevelHigh,
		HighRiskDetected: true,
		Flags: []types.RiskFlag{
			{Category: "suicidal ideation", Description: "Keyword scan matched suicidal ideation language.", DetectedKeywords: []string{"kill myself", "passive ideation"}},
			{Category: "Hopelessness", Description: "Keyword scan matched hopelessness language.", DetectedKeywords: []string{"hopeless"}},
		},
	}

	got := Merge(primary, scan)
	if len(got.Flags) != 3 {
		t.Fatalf("flag count: want=3 got=%d (%+v)", len(got.Flags), got.Flags)
	}

	// The shared category keeps the primary's prose. Description precedence
	// is asymmetric on purpose even though level and safety-plan merging are
	// symmetric.
	shared := got.Flags[0]
	if shared.Category != "Suicidal ideation" {
		t.Fatalf("shared category: want primary casing, got=%q", shared.Category)
	}
	if shared.Description != "Client described passive ideation without plan." {
		t.Fatalf("shared description: want primary prose, got=%q", shared.Description)
	}
	if len(shared.DetectedKeywords) != 2 {
		t.Fatalf("shared keywords should union deduped: %v", shared.DetectedKeywords)
	}

	categories := map[string]bool{}
	for _, f := range got.Flags {
		categories[f.Category] = true
	}
	if !categories["Isolation"] || !categories["Hopelessness"] {
		t.Fatalf("missing single-source flags: %+v", got.Flags)
	}
}

func TestMergeLevelAndSafetyPlanSymmetric(t *testing.T) {
	a := types.RiskAssessment{Level: types.RiskLevelModerate, SafetyPlanNeeded: false}
	b := ScanResult{Level: types.RiskLevelHigh, HighRiskDetected: true}

	forward := Merge(a, b)
	reversed := Merge(
		types.RiskAssessment{Level: b.Level, SafetyPlanNeeded: b.HighRiskDetected},
		ScanResult{Level: a.Level, HighRiskDetected: a.SafetyPlanNeeded},
	)
	if forward.Level != reversed.Level {
		t.Fatalf("level not symmetric: %s vs %s", forward.Level, reversed.Level)
	}
	if forward.SafetyPlanNeeded != reversed.SafetyPlanNeeded {
		t.Fatalf("safety plan not symmetric")
	}
}

func TestMergePassesNotesThrough(t *testing.T) {
	got := Merge(
		types.RiskAssessment{Level: types.RiskLevelLow, Notes: "Monitor at next session."},
		ScanResult{Level: types.RiskLevelModerate},
	)
	if got.Notes != "Monitor at next session." {
		t.Fatalf("notes: want passthrough, got=%q", got.Notes)
	}
}

func TestMergeNormalizesUnknownLevels(t *testing.T) {
	got := Merge(
		types.RiskAssessment{Level: types.RiskLevel("severe")},
		ScanResult{Level: types.RiskLevelModerate},
	)
	if got.Level != types.RiskLevelModerate {
		t.Fatalf("unknown primary level should normalize below moderate: got=%s", got.Level)
	}
}

func TestScanThenMergeEndToEnd(t *testing.T) {
	scan := Scan("I want to kill myself")
	primary := types.RiskAssessment{
		Level:            types.RiskLevelLow,
		SafetyPlanNeeded: false,
		Flags: []types.RiskFlag{
			{Category: "Isolation", Description: "Pulling away from friends.", DetectedKeywords: []string{"alone"}},
		},
	}

	got := Merge(primary, scan)
	if got.Level != types.RiskLevelHigh {
		t.Fatalf("level: want=%s got=%s", types.RiskLevelHigh, got.Level)
	}
	if !got.SafetyPlanNeeded {
		t.Fatalf("safety plan: want=true")
	}
	categories := map[string]bool{}
	for _, f := range got.Flags {
		categories[f.Category] = true
	}
	if len(categories) != 2 || !categories["Isolation"] || !categories["Suicidal ideation"] {
		t.Fatalf("categories: %v", categories)
	}
}
