package models

import "time"

// FolderStats represents aggregated statistics for a single tag across the
// vault's folder tree.
type FolderStats struct {
	Total      int            `json:"total"`       // Total notes carrying this tag
	ByCategory map[string]int `json:"by_category"` // Maps category name to note count
}

// DominantCategory returns the category holding the largest share of the
// tag's notes and that share as a ratio. A tag with no notes returns
// Unknown with ratio 0.
func (s FolderStats) DominantCategory() (Category, float64) {
	if s.Total == 0 {
		return CategoryUnknown, 0
	}
	best := ""
	bestCount := 0
	for category, count := range s.ByCategory {
		if count > bestCount || (count == bestCount && category < best) {
			best = category
			bestCount = count
		}
	}
	return NormalizeCategory(best), float64(bestCount) / float64(s.Total)
}

// VaultStatistics represents tag distribution statistics for one vault.
type VaultStatistics struct {
	VaultRoot       string                 `json:"vault_root"`
	TagStats        map[string]FolderStats `json:"tag_stats"` // Maps tag name to statistics
	Tainted         bool                   `json:"tainted"`
	LastAnalyzedAt  *time.Time             `json:"last_analyzed_at,omitempty"`
	AnalysisVersion int                    `json:"analysis_version"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}
