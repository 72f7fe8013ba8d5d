package decision

import (
	"errors"
	"math"
	"testing"

	"github.com/parakeep/organizer/internal/config"
	"github.com/parakeep/organizer/internal/models"
)

func defaultMaker() *Maker {
	h := config.DefaultHeuristics()
	return NewMaker(h.Decision, h.Archive, nil)
}

func evenWeights() models.WeightVector {
	return models.WeightVector{Semantic: 0.6, LLM: 0.4}
}

func TestDecideConsensus(t *testing.T) {
	t.Parallel()

	m := defaultMaker()
	semantic := models.Verdict{Category: models.CategoryAreas, Confidence: 0.8, FolderName: "Team Sync"}
	llm := models.Verdict{Category: models.CategoryAreas, Confidence: 0.7, FolderName: "Team Sync"}

	d, err := m.Decide(semantic, llm, evenWeights())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if d.Method != models.MethodConsensus {
		t.Errorf("Method = %q, want consensus", d.Method)
	}
	if d.Category != models.CategoryAreas {
		t.Errorf("Category = %q, want Areas", d.Category)
	}
	// 0.8*0.6 + 0.7*0.4 + 0.15 = 0.91
	if math.Abs(d.Confidence-0.91) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.91", d.Confidence)
	}
	if d.SemanticScore != 0.8 || d.LLMScore != 0.7 {
		t.Errorf("Scores = (%v, %v), want (0.8, 0.7)", d.SemanticScore, d.LLMScore)
	}
}

func TestDecideConsensusCap(t *testing.T) {
	t.Parallel()

	m := defaultMaker()
	semantic := models.Verdict{Category: models.CategoryProjects, Confidence: 0.99}
	llm := models.Verdict{Category: models.CategoryProjects, Confidence: 0.99}

	d, err := m.Decide(semantic, llm, evenWeights())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Confidence != 0.98 {
		t.Errorf("Confidence = %v, want capped at 0.98", d.Confidence)
	}
}

func TestDecideFolderSkipsPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		llmFolder  string
		wantFolder string
	}{
		{name: "unknown placeholder", llmFolder: "Unknown", wantFolder: "Team Sync"},
		{name: "lowercase unknown", llmFolder: "unknown", wantFolder: "Team Sync"},
		{name: "empty", llmFolder: "", wantFolder: "Team Sync"},
		{name: "real suggestion preferred", llmFolder: "Sync Notes", wantFolder: "Sync Notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := defaultMaker()
			semantic := models.Verdict{Category: models.CategoryAreas, Confidence: 0.8, FolderName: "Team Sync"}
			llm := models.Verdict{Category: models.CategoryAreas, Confidence: 0.7, FolderName: tt.llmFolder}

			d, err := m.Decide(semantic, llm, evenWeights())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if d.FolderName != tt.wantFolder {
				t.Errorf("FolderName = %q, want %q", d.FolderName, tt.wantFolder)
			}
		})
	}
}

func TestDecideDiscrepancy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		semantic   models.Verdict
		llm        models.Verdict
		weights    models.WeightVector
		wantMethod models.Method
		wantCat    models.Category
		wantConf   float64
	}{
		{
			name:       "semantic wins",
			semantic:   models.Verdict{Category: models.CategoryProjects, Confidence: 0.9},
			llm:        models.Verdict{Category: models.CategoryResources, Confidence: 0.6},
			weights:    models.WeightVector{Semantic: 0.7, LLM: 0.3},
			wantMethod: models.MethodSemanticWeighted,
			wantCat:    models.CategoryProjects,
			// 0.9*0.7 + 0.6*0.3*0.3 = 0.63 + 0.054
			wantConf: 0.684,
		},
		{
			name:       "llm wins",
			semantic:   models.Verdict{Category: models.CategoryResources, Confidence: 0.4},
			llm:        models.Verdict{Category: models.CategoryArchive, Confidence: 0.9},
			weights:    models.WeightVector{Semantic: 0.4, LLM: 0.6},
			wantMethod: models.MethodLLMWeighted,
			wantCat:    models.CategoryArchive,
			// 0.9*0.6 + 0.4*0.4*0.3 = 0.54 + 0.048
			wantConf: 0.588,
		},
		{
			name:       "cap applies",
			semantic:   models.Verdict{Category: models.CategoryProjects, Confidence: 1.0},
			llm:        models.Verdict{Category: models.CategoryResources, Confidence: 1.0},
			weights:    models.WeightVector{Semantic: 0.9, LLM: 0.1},
			wantMethod: models.MethodSemanticWeighted,
			wantCat:    models.CategoryProjects,
			wantConf:   0.85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := defaultMaker()
			d, err := m.Decide(tt.semantic, tt.llm, tt.weights)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if d.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", d.Method, tt.wantMethod)
			}
			if d.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", d.Category, tt.wantCat)
			}
			if math.Abs(d.Confidence-tt.wantConf) > 1e-9 {
				t.Errorf("Confidence = %v, want %v", d.Confidence, tt.wantConf)
			}
		})
	}
}

func TestDecideFallbacks(t *testing.T) {
	t.Parallel()

	m := defaultMaker()
	unknown := models.Verdict{Category: models.CategoryUnknown}

	t.Run("semantic only", func(t *testing.T) {
		t.Parallel()

		semantic := models.Verdict{Category: models.CategoryResources, Confidence: 0.8}
		d, err := m.Decide(semantic, unknown, evenWeights())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Method != models.MethodSemanticOnly {
			t.Errorf("Method = %q, want chromadb_only", d.Method)
		}
		if math.Abs(d.Confidence-0.48) > 1e-9 {
			t.Errorf("Confidence = %v, want 0.8*0.6 = 0.48", d.Confidence)
		}
	})

	t.Run("llm only", func(t *testing.T) {
		t.Parallel()

		llm := models.Verdict{Category: models.CategoryProjects, Confidence: 0.9}
		d, err := m.Decide(unknown, llm, evenWeights())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d.Method != models.MethodLLMWeighted {
			t.Errorf("Method = %q, want llm_weighted", d.Method)
		}
	})

	t.Run("both unavailable", func(t *testing.T) {
		t.Parallel()

		d, err := m.Decide(unknown, unknown, evenWeights())
		if !errors.Is(err, ErrNoClassifiers) {
			t.Errorf("err = %v, want ErrNoClassifiers", err)
		}
		if d != nil {
			t.Errorf("Decision = %+v, want nil", d)
		}
	})
}

func TestPreserveInArchive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		analysis models.ContentAnalysis
		want     bool
	}{
		{
			name: "completed note in archive stays",
			analysis: models.ContentAnalysis{
				InArchiveTree:      true,
				HasCompletedStatus: true,
				CharCount:          500,
				DaysSinceModified:  200,
				DaysSinceAccessed:  200,
			},
			want: true,
		},
		{
			name: "stale untouched note stays",
			analysis: models.ContentAnalysis{
				InArchiveTree:     true,
				CharCount:         500,
				DaysSinceModified: 365,
				DaysSinceAccessed: 365,
			},
			want: true,
		},
		{
			name: "stub note stays",
			analysis: models.ContentAnalysis{
				InArchiveTree:     true,
				CharCount:         40,
				DaysSinceModified: 10,
				DaysSinceAccessed: 10,
			},
			want: false, // recent modification is a reactivation vote, tie keeps it out
		},
		{
			name: "recently active urgent note is reclassified",
			analysis: models.ContentAnalysis{
				InArchiveTree:     true,
				CharCount:         500,
				DaysSinceModified: 5,
				DaysSinceAccessed: 5,
				UrgencySignals:    3,
				HasActiveStatus:   true,
			},
			want: false,
		},
		{
			name: "not in archive tree never preserved",
			analysis: models.ContentAnalysis{
				InArchiveTree:      false,
				HasCompletedStatus: true,
				DaysSinceModified:  400,
				DaysSinceAccessed:  400,
			},
			want: false,
		},
		{
			name: "abandoned task list stays",
			analysis: models.ContentAnalysis{
				InArchiveTree:     true,
				CharCount:         500,
				PendingTasks:      5,
				DaysSinceModified: 200,
				DaysSinceAccessed: 200,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := defaultMaker()
			reason, got := m.PreserveInArchive(&tt.analysis)
			if got != tt.want {
				t.Errorf("PreserveInArchive() = %v, want %v", got, tt.want)
			}
			if got && reason == "" {
				t.Error("Preserved notes must carry a reason")
			}
		})
	}
}

func TestPreservationDecision(t *testing.T) {
	t.Parallel()

	m := defaultMaker()
	d := m.PreservationDecision(&models.ContentAnalysis{}, "Old Project", "completed or obsolete content")

	if d.Category != models.CategoryArchive {
		t.Errorf("Category = %q, want Archive", d.Category)
	}
	if d.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", d.Confidence)
	}
	if d.Method != models.MethodArchivePreservation {
		t.Errorf("Method = %q, want archive_preservation", d.Method)
	}
	if d.FolderName != "Old Project" {
		t.Errorf("FolderName = %q, want Old Project", d.FolderName)
	}
}
