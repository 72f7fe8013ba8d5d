package models

import (
	"time"

	"github.com/google/uuid"
)

// Method identifies which path through the decision maker produced a
// classification.
type Method string

const (
	MethodConsensus           Method = "consensus"
	MethodSemanticWeighted    Method = "chromadb_weighted"
	MethodLLMWeighted         Method = "llm_weighted"
	MethodSemanticOnly        Method = "chromadb_only"
	MethodArchivePreservation Method = "archive_preservation"
)

// Verdict is a single classifier's answer for a note.
type Verdict struct {
	Category   Category `json:"category"`
	FolderName string   `json:"folder_name,omitempty"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// WeightVector holds the per-note blend of the two classifiers. The pair
// always sums to 1.0 with each side inside the configured clamp bounds.
type WeightVector struct {
	Semantic float64 `json:"semantic"`
	LLM      float64 `json:"llm"`
}

// Decision is the engine's final answer for a note.
type Decision struct {
	Category      Category `json:"category"`
	FolderName    string   `json:"folder_name"`
	Confidence    float64  `json:"confidence"`
	Method        Method   `json:"method"`
	Reasoning     string   `json:"reasoning"`
	SemanticScore float64  `json:"semantic_score"`
	LLMScore      float64  `json:"llm_score"`
}

// TargetPath returns the vault-relative folder the note should move to.
func (d *Decision) TargetPath() string {
	base := d.Category.FolderName()
	if base == "" {
		return ""
	}
	if d.FolderName == "" {
		return base
	}
	return base + "/" + d.FolderName
}

// ClassificationRecord is the persisted audit row for one decision. Field
// names are part of the audit contract and stay stable across releases.
type ClassificationRecord struct {
	ID            uuid.UUID `json:"id"`
	NotePath      string    `json:"note_path"`
	Category      Category  `json:"category"`
	FolderName    string    `json:"folder_name"`
	Confidence    float64   `json:"confidence"`
	Method        Method    `json:"method"`
	Reasoning     string    `json:"reasoning"`
	SemanticScore float64   `json:"semantic_score"`
	LLMScore      float64   `json:"llm_score"`
	CreatedAt     time.Time `json:"created_at"`
}
