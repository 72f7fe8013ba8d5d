package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Heuristics holds every tunable constant of the classification engine.
// Values are loaded from a YAML file when HEURISTICS_FILE is set; otherwise
// the defaults below apply.
type Heuristics struct {
	Weights  WeightTuning  `yaml:"weights"`
	Decision DecisionTuning `yaml:"decision"`
	Archive  ArchiveTuning `yaml:"archive"`
	Prompt   PromptTuning  `yaml:"prompt"`
	Naming   NamingTuning  `yaml:"naming"`
	Dedupe   DedupeTuning  `yaml:"dedupe"`
}

// WeightTuning controls the dynamic weight calculator.
type WeightTuning struct {
	SemanticBase   float64 `yaml:"semantic_base" validate:"gt=0,lt=1"`
	LLMBase        float64 `yaml:"llm_base" validate:"gt=0,lt=1"`
	ClampMin       float64 `yaml:"clamp_min" validate:"gt=0,lt=0.5"`
	ClampMax       float64 `yaml:"clamp_max" validate:"gt=0.5,lt=1"`
	CriticalDelta  float64 `yaml:"critical_delta" validate:"gt=0,lte=0.25"`
	MajorDelta     float64 `yaml:"major_delta" validate:"gt=0,lte=0.25"`
	AuxiliaryDelta float64 `yaml:"auxiliary_delta" validate:"gt=0,lte=0.1"`
	MinorDelta     float64 `yaml:"minor_delta" validate:"gt=0,lte=0.1"`

	// CoherenceThreshold is the folder-dominance ratio above which a tag
	// is considered coherent with a category.
	CoherenceThreshold float64 `yaml:"coherence_threshold" validate:"gte=0.5,lte=1"`
}

// DecisionTuning controls the hybrid decision maker.
type DecisionTuning struct {
	ConsensusBonus    float64 `yaml:"consensus_bonus" validate:"gte=0,lte=0.3"`
	ConsensusCap      float64 `yaml:"consensus_cap" validate:"gt=0,lte=1"`
	DiscrepancyBlend  float64 `yaml:"discrepancy_blend" validate:"gte=0,lte=1"`
	DiscrepancyCap    float64 `yaml:"discrepancy_cap" validate:"gt=0,lte=1"`
	PreservationScore float64 `yaml:"preservation_score" validate:"gt=0,lte=1"`
}

// ArchiveTuning controls the archive preservation short circuit.
type ArchiveTuning struct {
	StaleAfterDays    int `yaml:"stale_after_days" validate:"gt=0"`
	QuietWindowDays   int `yaml:"quiet_window_days" validate:"gt=0"`
	StubMaxChars      int `yaml:"stub_max_chars" validate:"gt=0"`
	MaxPendingAllowed int `yaml:"max_pending_allowed" validate:"gte=0"`
}

// PromptTuning controls the LLM classifier adapter.
type PromptTuning struct {
	MaxPromptChars int `yaml:"max_prompt_chars" validate:"gt=0"`
	RequestTimeout int `yaml:"request_timeout_seconds" validate:"gt=0"`
	OverallTimeout int `yaml:"overall_timeout_seconds" validate:"gt=0"`
}

// NamingTuning controls the folder namer.
type NamingTuning struct {
	MaxNameLength int `yaml:"max_name_length" validate:"gt=0"`
}

// DedupeTuning controls the duplicate resolver.
type DedupeTuning struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`
}

// DefaultHeuristics returns the built-in tuning values.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		Weights: WeightTuning{
			SemanticBase:       0.6,
			LLMBase:            0.4,
			ClampMin:           0.1,
			ClampMax:           0.9,
			CriticalDelta:      0.25,
			MajorDelta:         0.15,
			AuxiliaryDelta:     0.08,
			MinorDelta:         0.03,
			CoherenceThreshold: 0.7,
		},
		Decision: DecisionTuning{
			ConsensusBonus:    0.15,
			ConsensusCap:      0.98,
			DiscrepancyBlend:  0.3,
			DiscrepancyCap:    0.85,
			PreservationScore: 0.95,
		},
		Archive: ArchiveTuning{
			StaleAfterDays:    180,
			QuietWindowDays:   30,
			StubMaxChars:      100,
			MaxPendingAllowed: 2,
		},
		Prompt: PromptTuning{
			MaxPromptChars: 4000,
			RequestTimeout: 30,
			OverallTimeout: 45,
		},
		Naming: NamingTuning{
			MaxNameLength: 40,
		},
		Dedupe: DedupeTuning{
			SimilarityThreshold: 0.7,
		},
	}
}

// LoadHeuristics reads tuning values from a YAML file. Fields absent from
// the file keep their defaults. An empty path returns the defaults.
func LoadHeuristics(path string) (*Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading heuristics file: %w", err)
	}

	if err := yaml.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("parsing heuristics file: %w", err)
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}

	return h, nil
}

// Validate checks tuning values for internal consistency.
func (h *Heuristics) Validate() error {
	v := validator.New()
	if err := v.Struct(h); err != nil {
		return fmt.Errorf("invalid heuristics: %w", err)
	}

	if h.Weights.SemanticBase+h.Weights.LLMBase != 1.0 {
		return fmt.Errorf("invalid heuristics: base weights must sum to 1.0")
	}
	if h.Weights.ClampMin >= h.Weights.ClampMax {
		return fmt.Errorf("invalid heuristics: clamp_min must be below clamp_max")
	}

	return nil
}
