package types

type DiffType string

const (
	DiffAdded     DiffType = "added"
	DiffRemoved   DiffType = "removed"
	DiffChanged   DiffType = "changed"
	DiffUnchanged DiffType = "unchanged"
)

type FieldDiff struct {
	Type     DiffType `json:"type"`
	OldValue string   `json:"old_value,omitempty"`
	NewValue string   `json:"new_value,omitempty"`
}

// ItemDiff is the diff of one identity-keyed list item. Fields holds the
// per-field detail when the item is changed (and for added/removed items the
// new/old values of every tracked field).
type ItemDiff struct {
	ID     string               `json:"id"`
	Type   DiffType             `json:"type"`
	Fields map[string]FieldDiff `json:"fields,omitempty"`
}

type DualTextDiff struct {
	Clinical     FieldDiff `json:"clinical"`
	ClientFacing FieldDiff `json:"client_facing"`
}

// DiffSummary tallies the top-level compared units: the four scalar dual-text
// sides, every list item, and every risk factor. It is recomputed from the
// detail sections and never tracked separately.
type DiffSummary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
}

type PlanDiff struct {
	PresentingConcerns  DualTextDiff `json:"presenting_concerns"`
	ClinicalImpressions DualTextDiff `json:"clinical_impressions"`
	Goals               []ItemDiff   `json:"goals"`
	Interventions       []ItemDiff   `json:"interventions"`
	Homework            []ItemDiff   `json:"homework"`
	Strengths           []ItemDiff   `json:"strengths"`
	RiskFactors         []FieldDiff  `json:"risk_factors"`
	Summary             DiffSummary  `json:"summary"`
}
