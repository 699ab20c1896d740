package normalization

import (
	"github.com/attunehealth/attune-backend/internal/types"
)

// StyleExtractionsFromAny validates the top-level shape of an extraction
// batch (decoded LLM JSON) and normalizes each element. A non-list is
// rejected; a list with non-object elements is rejected.
func StyleExtractionsFromAny(v any) ([]types.StyleExtraction, error) {
	if v == nil {
		return []types.StyleExtraction{}, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, recordErr(RecordErrorNotAList, "extractions")
	}
	out := make([]types.StyleExtraction, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, recordErr(RecordErrorBadElement, "extractions")
		}
		ex, err := StyleExtractionFromMap(m)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// StyleExtractionFromMap normalizes one extraction object. Missing fields
// default to empty values; only a nil object is malformed.
func StyleExtractionFromMap(m map[string]any) (types.StyleExtraction, error) {
	if m == nil {
		return types.StyleExtraction{}, recordErr(RecordErrorNotAnObject, "extraction")
	}
	return types.StyleExtraction{
		SessionID:           uuidField(m, "session_id"),
		PrimaryModality:     stringField(m, "primary_modality"),
		SecondaryModalities: stringListField(m, "secondary_modalities"),
		Indicators:          stringListField(m, "indicators"),
		Interventions:       stringListField(m, "interventions"),
		Tone:                stringField(m, "tone"),
		Pacing:              stringField(m, "pacing"),
		UsesMetaphors:       boolField(m, "uses_metaphors"),
		Phrases:             stringListField(m, "phrases"),
		FocusAreas:          stringListField(m, "focus_areas"),
		HomeworkStyle:       stringField(m, "homework_style"),
	}, nil
}
