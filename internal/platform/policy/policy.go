package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy collects the tuning constants the content core runs on. The values
// are product policy, not derived invariants; defaults ship in code and a
// YAML file can override them per deployment.
type Policy struct {
	Chunking  Chunking  `yaml:"chunking"`
	Retrieval Retrieval `yaml:"retrieval"`
	Style     Style     `yaml:"style"`
}

type Chunking struct {
	TargetSize int `yaml:"target_size"`
	Overlap    int `yaml:"overlap"`
	// Fraction of target_size the boundary search may look back from a
	// window edge before cutting hard.
	LookbackFraction float64 `yaml:"lookback_fraction"`
	// Max accumulated section size for the semantic variant.
	MaxSectionSize int `yaml:"max_section_size"`
}

type Retrieval struct {
	Limit         int     `yaml:"limit"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

type Style struct {
	SecondaryModalityFraction float64 `yaml:"secondary_modality_fraction"`
	FrequentItemFraction      float64 `yaml:"frequent_item_fraction"`
	PhraseCap                 int     `yaml:"phrase_cap"`
	ConfidenceSaturation      int     `yaml:"confidence_saturation"`
}

func Default() Policy {
	return Policy{
		Chunking: Chunking{
			TargetSize:       1000,
			Overlap:          200,
			LookbackFraction: 0.5,
			MaxSectionSize:   1500,
		},
		Retrieval: Retrieval{
			Limit:         5,
			MinSimilarity: 0.7,
		},
		Style: Style{
			SecondaryModalityFraction: 0.2,
			FrequentItemFraction:      0.3,
			PhraseCap:                 10,
			ConfidenceSaturation:      10,
		},
	}
}

type ConfigErrorCode string

const (
	ConfigErrorReadFailed  ConfigErrorCode = "read_failed"
	ConfigErrorParseFailed ConfigErrorCode = "parse_failed"
	ConfigErrorInvalid     ConfigErrorCode = "invalid_value"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Field string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid policy config"
	}
	switch e.Code {
	case ConfigErrorReadFailed:
		return fmt.Sprintf("read policy file failed: %v", e.Cause)
	case ConfigErrorParseFailed:
		return fmt.Sprintf("parse policy file failed: %v", e.Cause)
	case ConfigErrorInvalid:
		return fmt.Sprintf("invalid policy value for %s", e.Field)
	default:
		return "invalid policy config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Load reads a YAML policy file over the defaults, so partial files only
// override the keys they name.
func Load(path string) (Policy, error) {
	out := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, &ConfigError{Code: ConfigErrorReadFailed, Cause: err}
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return Policy{}, &ConfigError{Code: ConfigErrorParseFailed, Cause: err}
	}
	if err := Validate(out); err != nil {
		return Policy{}, err
	}
	return out, nil
}

// ResolveFromEnv returns the default policy, or the file named by
// ATTUNE_POLICY_PATH when set.
func ResolveFromEnv() (Policy, error) {
	path := strings.TrimSpace(os.Getenv("ATTUNE_POLICY_PATH"))
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func Validate(p Policy) error {
	if p.Chunking.TargetSize <= 0 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "chunking.target_size"}
	}
	if p.Chunking.Overlap < 0 || p.Chunking.Overlap >= p.Chunking.TargetSize {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "chunking.overlap"}
	}
	if p.Chunking.LookbackFraction <= 0 || p.Chunking.LookbackFraction > 1 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "chunking.lookback_fraction"}
	}
	if p.Chunking.MaxSectionSize < p.Chunking.TargetSize {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "chunking.max_section_size"}
	}
	if p.Retrieval.Limit <= 0 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "retrieval.limit"}
	}
	if p.Retrieval.MinSimilarity < 0 || p.Retrieval.MinSimilarity > 1 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "retrieval.min_similarity"}
	}
	if p.Style.SecondaryModalityFraction <= 0 || p.Style.SecondaryModalityFraction > 1 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "style.secondary_modality_fraction"}
	}
	if p.Style.FrequentItemFraction <= 0 || p.Style.FrequentItemFraction > 1 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "style.frequent_item_fraction"}
	}
	if p.Style.PhraseCap <= 0 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "style.phrase_cap"}
	}
	if p.Style.ConfidenceSaturation <= 0 {
		return &ConfigError{Code: ConfigErrorInvalid, Field: "style.confidence_saturation"}
	}
	return nil
}
