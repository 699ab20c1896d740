package normalization

import (
	"encoding/json"

	"github.com/attunehealth/attune-backend/internal/types"
)

// PlanContentFromJSON decodes a stored or generated plan snapshot and
// normalizes it into typed content.
func PlanContentFromJSON(raw []byte) (types.PlanContent, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return types.PlanContent{}, &RecordError{Code: RecordErrorNotAnObject, Field: "plan_content", Cause: err}
	}
	return PlanContentFromMap(m)
}

// PlanContentFromMap normalizes a plan content object (decoded LLM or storage
// JSON). Missing sections default to empty, list items without ids get a
// fresh id, and unrecognized goal types default to short_term. A list-shaped
// field that is not a list is rejected.
func PlanContentFromMap(m map[string]any) (types.PlanContent, error) {
	if m == nil {
		return types.PlanContent{}, recordErr(RecordErrorNotAnObject, "plan_content")
	}

	out := types.PlanContent{
		PresentingConcerns:  dualTextField(m, "presenting_concerns"),
		ClinicalImpressions: dualTextField(m, "clinical_impressions"),
		RiskFactors:         stringListField(m, "risk_factors"),
	}

	goals, err := objectListField(m, "goals")
	if err != nil {
		return types.PlanContent{}, err
	}
	out.Goals = make([]types.Goal, 0, len(goals))
	for _, g := range goals {
		out.Goals = append(out.Goals, types.Goal{
			ID:           itemID(g),
			Goal:         stringField(g, "goal"),
			Type:         goalType(stringField(g, "type")),
			ClientFacing: stringField(g, "client_facing"),
			TargetDate:   stringField(g, "target_date"),
		})
	}

	interventions, err := objectListField(m, "interventions")
	if err != nil {
		return types.PlanContent{}, err
	}
	out.Interventions = make([]types.Intervention, 0, len(interventions))
	for _, iv := range interventions {
		out.Interventions = append(out.Interventions, types.Intervention{
			ID:           itemID(iv),
			Intervention: stringField(iv, "intervention"),
			ClientFacing: stringField(iv, "client_facing"),
			Frequency:    stringField(iv, "frequency"),
		})
	}

	homework, err := objectListField(m, "homework")
	if err != nil {
		return types.PlanContent{}, err
	}
	out.Homework = make([]types.HomeworkItem, 0, len(homework))
	for _, hw := range homework {
		out.Homework = append(out.Homework, types.HomeworkItem{
			ID:           itemID(hw),
			Task:         stringField(hw, "task"),
			ClientFacing: stringField(hw, "client_facing"),
			Frequency:    stringField(hw, "frequency"),
		})
	}

	strengths, err := objectListField(m, "strengths")
	if err != nil {
		return types.PlanContent{}, err
	}
	out.Strengths = make([]types.Strength, 0, len(strengths))
	for _, st := range strengths {
		out.Strengths = append(out.Strengths, types.Strength{
			ID:           itemID(st),
			Strength:     stringField(st, "strength"),
			ClientFacing: stringField(st, "client_facing"),
		})
	}

	return out, nil
}

// dualTextField accepts either the object form {clinical, client_facing} or a
// bare string, which older extractor prompts produced for the clinical side.
func dualTextField(m map[string]any, key string) types.DualText {
	if obj := objectField(m, key); obj != nil {
		return types.DualText{
			Clinical:     stringField(obj, "clinical"),
			ClientFacing: stringField(obj, "client_facing"),
		}
	}
	return types.DualText{Clinical: stringField(m, key)}
}

func goalType(raw string) types.GoalType {
	switch types.GoalType(Fold(raw)) {
	case types.GoalTypeLongTerm:
		return types.GoalTypeLongTerm
	default:
		return types.GoalTypeShortTerm
	}
}
