package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHeuristics(t *testing.T) {
	t.Parallel()

	h := DefaultHeuristics()

	if err := h.Validate(); err != nil {
		t.Fatalf("Default heuristics should validate, got: %v", err)
	}

	if h.Weights.SemanticBase != 0.6 {
		t.Errorf("Expected semantic base weight 0.6, got %v", h.Weights.SemanticBase)
	}
	if h.Weights.LLMBase != 0.4 {
		t.Errorf("Expected llm base weight 0.4, got %v", h.Weights.LLMBase)
	}
	if h.Decision.ConsensusCap != 0.98 {
		t.Errorf("Expected consensus cap 0.98, got %v", h.Decision.ConsensusCap)
	}
	if h.Decision.DiscrepancyCap != 0.85 {
		t.Errorf("Expected discrepancy cap 0.85, got %v", h.Decision.DiscrepancyCap)
	}
	if h.Decision.PreservationScore != 0.95 {
		t.Errorf("Expected preservation score 0.95, got %v", h.Decision.PreservationScore)
	}
	if h.Prompt.MaxPromptChars != 4000 {
		t.Errorf("Expected max prompt chars 4000, got %v", h.Prompt.MaxPromptChars)
	}
	if h.Naming.MaxNameLength != 40 {
		t.Errorf("Expected max name length 40, got %v", h.Naming.MaxNameLength)
	}
}

func TestLoadHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yaml        string
		expectError bool
		validate    func(*testing.T, *Heuristics)
	}{
		{
			name: "partial override keeps defaults",
			yaml: "decision:\n  consensus_bonus: 0.1\n  consensus_cap: 0.98\n  discrepancy_blend: 0.3\n  discrepancy_cap: 0.85\n  preservation_score: 0.95\n",
			validate: func(t *testing.T, h *Heuristics) {
				if h.Decision.ConsensusBonus != 0.1 {
					t.Errorf("Expected overridden consensus bonus 0.1, got %v", h.Decision.ConsensusBonus)
				}
				if h.Weights.SemanticBase != 0.6 {
					t.Errorf("Expected default semantic base 0.6, got %v", h.Weights.SemanticBase)
				}
			},
		},
		{
			name:        "base weights must sum to one",
			yaml:        "weights:\n  semantic_base: 0.7\n  llm_base: 0.4\n",
			expectError: true,
		},
		{
			name:        "clamp bounds out of range",
			yaml:        "weights:\n  clamp_min: 0.6\n",
			expectError: true,
		},
		{
			name:        "invalid yaml",
			yaml:        "weights: [not a mapping",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "heuristics.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatalf("Failed to write test file: %v", err)
			}

			h, err := LoadHeuristics(path)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, h)
			}
		})
	}
}

func TestLoadHeuristicsEmptyPath(t *testing.T) {
	t.Parallel()

	h, err := LoadHeuristics("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if h.Weights.SemanticBase != 0.6 {
		t.Errorf("Expected defaults for empty path, got semantic base %v", h.Weights.SemanticBase)
	}
}
