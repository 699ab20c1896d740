package normalization

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestStyleExtractionsFromAnyNil(t *testing.T) {
	got, err := StyleExtractionsFromAny(nil)
	if err != nil {
		t.Fatalf("StyleExtractionsFromAny: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("count: want=0 got=%d", len(got))
	}
}

func TestStyleExtractionsFromAnyRejectsNonList(t *testing.T) {
	_, err := StyleExtractionsFromAny(decodeJSON(t, `{"primary_modality":"CBT"}`))
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("error type: want=*RecordError got=%T", err)
	}
	if recErr.Code != RecordErrorNotAList {
		t.Fatalf("code: want=%s got=%s", RecordErrorNotAList, recErr.Code)
	}
}

func TestStyleExtractionsFromAnyRejectsNonObjectElement(t *testing.T) {
	_, err := StyleExtractionsFromAny(decodeJSON(t, `["not an object"]`))
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("error type: want=*RecordError got=%T", err)
	}
	if recErr.Code != RecordErrorBadElement {
		t.Fatalf("code: want=%s got=%s", RecordErrorBadElement, recErr.Code)
	}
}

func TestStyleExtractionFromMapDefaults(t *testing.T) {
	got, err := StyleExtractionFromMap(map[string]any{})
	if err != nil {
		t.Fatalf("StyleExtractionFromMap: %v", err)
	}
	if got.PrimaryModality != "" || got.Tone != "" || got.UsesMetaphors {
		t.Fatalf("missing fields should default empty: %+v", got)
	}
	if got.SecondaryModalities == nil || got.Interventions == nil || got.Phrases == nil {
		t.Fatalf("list fields should default to empty slices, not nil")
	}
	if got.SessionID != uuid.Nil {
		t.Fatalf("session id: want=Nil got=%s", got.SessionID)
	}
}

func TestStyleExtractionFromMapFullRecord(t *testing.T) {
	sessionID := uuid.New()
	raw := decodeJSON(t, `{
		"session_id": "`+sessionID.String()+`",
		"primary_modality": " CBT ",
		"secondary_modalities": ["ACT", "", 42],
		"indicators": ["used a thought record"],
		"interventions": ["exposure"],
		"tone": "warm",
		"pacing": "slow",
		"uses_metaphors": "yes",
		"phrases": ["notice that thought"],
		"focus_areas": ["anxiety"],
		"homework_style": "structured"
	}`).(map[string]any)

	got, err := StyleExtractionFromMap(raw)
	if err != nil {
		t.Fatalf("StyleExtractionFromMap: %v", err)
	}
	if got.SessionID != sessionID {
		t.Fatalf("session id: want=%s got=%s", sessionID, got.SessionID)
	}
	if got.PrimaryModality != "CBT" {
		t.Fatalf("primary modality should trim: got=%q", got.PrimaryModality)
	}
	if len(got.SecondaryModalities) != 1 || got.SecondaryModalities[0] != "ACT" {
		t.Fatalf("secondary modalities should drop blanks and non-strings: %v", got.SecondaryModalities)
	}
	if !got.UsesMetaphors {
		t.Fatalf("uses_metaphors: string form should coerce true")
	}
}

func TestStyleExtractionFromMapNilObject(t *testing.T) {
	_, err := StyleExtractionFromMap(nil)
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("error type: want=*RecordError got=%T", err)
	}
	if recErr.Code != RecordErrorNotAnObject {
		t.Fatalf("code: want=%s got=%s", RecordErrorNotAnObject, recErr.Code)
	}
}
