package naming

import (
	"regexp"
	"strings"

	"github.com/parakeep/organizer/internal/models"
)

// DefaultUntitled is the name used when a note offers nothing to name a
// folder after. The Spanish default matches the vaults this tool grew up
// organizing.
const DefaultUntitled = "Sin Título"

var (
	h1Re       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	h2Re       = regexp.MustCompile(`(?m)^##\s+(.+)$`)
	mdMarkupRe = regexp.MustCompile("[*_`\\[\\]#]")
)

// TraditionalName derives a folder name from a note's own structure:
// frontmatter title, then first H1, then first H2, then the first
// non-empty line, then the untitled fallback.
func TraditionalName(note *models.Note, maxLen int) string {
	candidates := []string{note.Title}

	if m := h1Re.FindStringSubmatch(note.Body); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := h2Re.FindStringSubmatch(note.Body); m != nil {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, firstNonEmptyLine(note.Body))

	for _, c := range candidates {
		if cleaned := cleanTitle(c); cleaned != "" {
			return TruncateWholeWords(cleaned, maxLen)
		}
	}
	return DefaultUntitled
}

// firstNonEmptyLine returns the first line with visible content.
func firstNonEmptyLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// cleanTitle strips markdown markup and collapses whitespace.
func cleanTitle(s string) string {
	s = mdMarkupRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// TruncateWholeWords cuts a name to maxLen without splitting a word. A
// single word longer than the limit is hard-cut.
func TruncateWholeWords(name string, maxLen int) string {
	if maxLen <= 0 || len(name) <= maxLen {
		return name
	}

	cut := name[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
