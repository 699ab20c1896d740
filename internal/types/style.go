package types

import "github.com/google/uuid"

// StyleExtraction is one structured read of a clinician's technique and tone
// from a single session, produced upstream by an LLM extractor. It arrives
// through normalization.StyleExtractionFromMap and is trusted after that.
type StyleExtraction struct {
	SessionID           uuid.UUID `json:"session_id"`
	PrimaryModality     string    `json:"primary_modality"`
	SecondaryModalities []string  `json:"secondary_modalities"`
	// Short transcript excerpts evidencing the primary modality.
	Indicators    []string `json:"indicators"`
	Interventions []string `json:"interventions"`
	Tone          string   `json:"tone"`
	Pacing        string   `json:"pacing"`
	UsesMetaphors bool     `json:"uses_metaphors"`
	Phrases       []string `json:"phrases"`
	FocusAreas    []string `json:"focus_areas"`
	HomeworkStyle string   `json:"homework_style"`
}

// StyleProfile is the confidence-weighted aggregate over many extractions.
// It is recomputed from scratch on every aggregation call.
type StyleProfile struct {
	PrimaryModality     string              `json:"primary_modality"`
	SecondaryModalities []string            `json:"secondary_modalities"`
	ModalityIndicators  map[string][]string `json:"modality_indicators"`
	CommonInterventions []string            `json:"common_interventions"`
	Tone                string              `json:"tone"`
	Pacing              string              `json:"pacing"`
	HomeworkStyle       string              `json:"homework_style"`
	UsesMetaphors       bool                `json:"uses_metaphors"`
	CommonPhrases       []string            `json:"common_phrases"`
	FocusAreas          []string            `json:"focus_areas"`
	// ConfidenceScore grows with sample count and saturates at 1. It is a
	// coverage signal, not a statistical confidence interval.
	ConfidenceScore float64 `json:"confidence_score"`
	ExtractionCount int     `json:"extraction_count"`
}
