package plan

import (
	"strings"

	"github.com/attunehealth/attune-backend/internal/normalization"
	"github.com/attunehealth/attune-backend/internal/types"
)

// Diff compares two plan snapshots. A nil old snapshot is the first-version
// base case: every populated field and item of the new snapshot comes back
// added and the summary carries no unchanged count, so callers can suppress
// diff display for version one.
func Diff(oldContent *types.PlanContent, newContent types.PlanContent) types.PlanDiff {
	baseVersion := oldContent == nil
	var old types.PlanContent
	if oldContent != nil {
		old = *oldContent
	}

	out := types.PlanDiff{
		PresentingConcerns:  diffDualText(old.PresentingConcerns, newContent.PresentingConcerns),
		ClinicalImpressions: diffDualText(old.ClinicalImpressions, newContent.ClinicalImpressions),
		Goals:               diffItems(goalFields(old.Goals), goalFields(newContent.Goals)),
		Interventions:       diffItems(interventionFields(old.Interventions), interventionFields(newContent.Interventions)),
		Homework:            diffItems(homeworkFields(old.Homework), homeworkFields(newContent.Homework)),
		Strengths:           diffItems(strengthFields(old.Strengths), strengthFields(newContent.Strengths)),
		RiskFactors:         diffStringSet(old.RiskFactors, newContent.RiskFactors),
	}
	out.Summary = summarize(out, baseVersion)
	return out
}

// compareField classifies one scalar transition. Equality is exact after
// whitespace trimming; both sides empty is unchanged, not added.
func compareField(oldVal, newVal string) types.FieldDiff {
	oldVal = strings.TrimSpace(oldVal)
	newVal = strings.TrimSpace(newVal)
	switch {
	case oldVal == newVal:
		return types.FieldDiff{Type: types.DiffUnchanged, OldValue: oldVal, NewValue: newVal}
	case oldVal == "":
		return types.FieldDiff{Type: types.DiffAdded, NewValue: newVal}
	case newVal == "":
		return types.FieldDiff{Type: types.DiffRemoved, OldValue: oldVal}
	default:
		return types.FieldDiff{Type: types.DiffChanged, OldValue: oldVal, NewValue: newVal}
	}
}

func diffDualText(oldVal, newVal types.DualText) types.DualTextDiff {
	return types.DualTextDiff{
		Clinical:     compareField(oldVal.Clinical, newVal.Clinical),
		ClientFacing: compareField(oldVal.ClientFacing, newVal.ClientFacing),
	}
}

// keyedItem is one list item flattened to its tracked fields, keyed by the
// stable id assigned at creation time. Reconciliation never considers list
// position.
type keyedItem struct {
	id     string
	fields []trackedField
}

type trackedField struct {
	name  string
	value string
}

func diffItems(oldItems, newItems []keyedItem) []types.ItemDiff {
	oldByID := map[string]keyedItem{}
	for _, it := range oldItems {
		oldByID[it.id] = it
	}
	newByID := map[string]keyedItem{}
	for _, it := range newItems {
		newByID[it.id] = it
	}

	out := make([]types.ItemDiff, 0, len(newItems)+len(oldItems))
	for _, newIt := range newItems {
		oldIt, existed := oldByID[newIt.id]
		if !existed {
			fields := map[string]types.FieldDiff{}
			for _, f := range newIt.fields {
				fields[f.name] = compareField("", f.value)
			}
			out = append(out, types.ItemDiff{ID: newIt.id, Type: types.DiffAdded, Fields: fields})
			continue
		}
		fields := map[string]types.FieldDiff{}
		itemType := types.DiffUnchanged
		for i, f := range newIt.fields {
			fd := compareField(oldIt.fields[i].value, f.value)
			fields[f.name] = fd
			if fd.Type != types.DiffUnchanged {
				itemType = types.DiffChanged
			}
		}
		out = append(out, types.ItemDiff{ID: newIt.id, Type: itemType, Fields: fields})
	}
	for _, oldIt := range oldItems {
		if _, kept := newByID[oldIt.id]; kept {
			continue
		}
		fields := map[string]types.FieldDiff{}
		for _, f := range oldIt.fields {
			fields[f.name] = compareField(f.value, "")
		}
		out = append(out, types.ItemDiff{ID: oldIt.id, Type: types.DiffRemoved, Fields: fields})
	}
	return out
}

// diffStringSet reconciles the risk-factor list by case-folded value. New
// side order first, then removed entries in old order.
func diffStringSet(oldVals, newVals []string) []types.FieldDiff {
	oldSet := map[string]string{}
	for _, v := range oldVals {
		if key := normalization.Fold(v); key != "" {
			oldSet[key] = strings.TrimSpace(v)
		}
	}
	newSet := map[string]bool{}

	out := make([]types.FieldDiff, 0, len(newVals)+len(oldVals))
	for _, v := range newVals {
		key := normalization.Fold(v)
		if key == "" || newSet[key] {
			continue
		}
		newSet[key] = true
		if oldVal, existed := oldSet[key]; existed {
			out = append(out, types.FieldDiff{Type: types.DiffUnchanged, OldValue: oldVal, NewValue: strings.TrimSpace(v)})
		} else {
			out = append(out, types.FieldDiff{Type: types.DiffAdded, NewValue: strings.TrimSpace(v)})
		}
	}
	for _, v := range oldVals {
		key := normalization.Fold(v)
		if key == "" || newSet[key] {
			continue
		}
		newSet[key] = true
		out = append(out, types.FieldDiff{Type: types.DiffRemoved, OldValue: strings.TrimSpace(v)})
	}
	return out
}

// summarize tallies the top-level compared units: the four scalar sides, each
// list item, and each risk factor. Field detail inside a changed item is not
// double counted. The base version reports no unchanged units.
func summarize(d types.PlanDiff, baseVersion bool) types.DiffSummary {
	var s types.DiffSummary
	tally := func(t types.DiffType) {
		switch t {
		case types.DiffAdded:
			s.Added++
		case types.DiffRemoved:
			s.Removed++
		case types.DiffChanged:
			s.Changed++
		default:
			s.Unchanged++
		}
	}

	tally(d.PresentingConcerns.Clinical.Type)
	tally(d.PresentingConcerns.ClientFacing.Type)
	tally(d.ClinicalImpressions.Clinical.Type)
	tally(d.ClinicalImpressions.ClientFacing.Type)
	for _, it := range d.Goals {
		tally(it.Type)
	}
	for _, it := range d.Interventions {
		tally(it.Type)
	}
	for _, it := range d.Homework {
		tally(it.Type)
	}
	for _, it := range d.Strengths {
		tally(it.Type)
	}
	for _, fd := range d.RiskFactors {
		tally(fd.Type)
	}

	if baseVersion {
		s.Unchanged = 0
	}
	return s
}

func goalFields(items []types.Goal) []keyedItem {
	out := make([]keyedItem, 0, len(items))
	for _, g := range items {
		out = append(out, keyedItem{id: g.ID.String(), fields: []trackedField{
			{name: "goal", value: g.Goal},
			{name: "type", value: string(g.Type)},
			{name: "client_facing", value: g.ClientFacing},
			{name: "target_date", value: g.TargetDate},
		}})
	}
	return out
}

func interventionFields(items []types.Intervention) []keyedItem {
	out := make([]keyedItem, 0, len(items))
	for _, iv := range items {
		out = append(out, keyedItem{id: iv.ID.String(), fields: []trackedField{
			{name: "intervention", value: iv.Intervention},
			{name: "client_facing", value: iv.ClientFacing},
			{name: "frequency", value: iv.Frequency},
		}})
	}
	return out
}

func homeworkFields(items []types.HomeworkItem) []keyedItem {
	out := make([]keyedItem, 0, len(items))
	for _, hw := range items {
		out = append(out, keyedItem{id: hw.ID.String(), fields: []trackedField{
			{name: "task", value: hw.Task},
			{name: "client_facing", value: hw.ClientFacing},
			{name: "frequency", value: hw.Frequency},
		}})
	}
	return out
}

func strengthFields(items []types.Strength) []keyedItem {
	out := make([]keyedItem, 0, len(items))
	for _, st := range items {
		out = append(out, keyedItem{id: st.ID.String(), fields: []trackedField{
			{name: "strength", value: st.Strength},
			{name: "client_facing", value: st.ClientFacing},
		}})
	}
	return out
}
