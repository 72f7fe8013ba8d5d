package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parakeep/organizer/internal/models"
)

// ParseClassification extracts a classification from a raw model
// response. Models wrap JSON in prose or code fences often enough that
// parsing tries three strategies in order: direct unmarshal, the first
// balanced brace block, and a line scan for the category field. The
// category always goes through NormalizeCategory, so any non-empty
// answer maps to a canonical category.
func ParseClassification(raw string) (*Classification, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}

	var payload struct {
		Category   string  `json:"category"`
		FolderName string  `json:"folder_name"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}

	candidate := raw
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		candidate = extractBraceBlock(raw)
		if candidate == "" || json.Unmarshal([]byte(candidate), &payload) != nil {
			// last resort: scan lines for a category mention
			payload.Category = scanForField(raw, "category")
			payload.FolderName = scanForField(raw, "folder_name")
		}
	}

	if strings.TrimSpace(payload.Category) == "" {
		return nil, fmt.Errorf("no category in response")
	}

	category := models.NormalizeCategory(payload.Category)
	confidence := payload.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.7
	}

	return &Classification{
		Category:   category,
		FolderName: strings.TrimSpace(payload.FolderName),
		Confidence: confidence,
		Reasoning:  strings.TrimSpace(payload.Reasoning),
	}, nil
}

// extractBraceBlock returns the outermost {...} block in s, or "".
func extractBraceBlock(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// scanForField pulls a quoted value for `"field": "value"` out of free
// text, tolerating whitespace and trailing commas.
func scanForField(s, field string) string {
	needle := `"` + field + `"`
	idx := strings.Index(s, needle)
	if idx == -1 {
		return ""
	}
	rest := s[idx+len(needle):]
	colon := strings.Index(rest, ":")
	if colon == -1 {
		return ""
	}
	rest = strings.TrimSpace(rest[colon+1:])
	if !strings.HasPrefix(rest, `"`) {
		return ""
	}
	rest = rest[1:]
	endQuote := strings.Index(rest, `"`)
	if endQuote == -1 {
		return ""
	}
	return rest[:endQuote]
}
