package naming

import (
	"regexp"
	"sort"
	"strings"

	"github.com/parakeep/organizer/internal/models"
)

// Entity dictionaries for intelligent naming. These mirror the kinds of
// things notes actually mention: tools, document types, working themes,
// cadence markers.

var technologyTerms = []string{
	"docker", "nginx", "wordpress", "git", "jenkins", "aws",
	"react", "vue", "angular", "node", "python", "javascript", "java",
	"css", "html", "mysql", "postgresql", "mongodb", "redis", "kubernetes",
	"terraform", "linux", "golang",
}

var documentTypeTerms = []string{
	"meeting", "spec", "analysis", "planning", "review",
	"retrospective", "standup", "demo", "training", "onboarding",
	"reunión", "junta",
}

var actionThemeTerms = []string{
	"development", "design", "testing", "deployment", "analysis",
	"planning", "research", "documentation", "training", "coaching",
	"migration", "desarrollo", "diseño",
}

var temporalMarkerRe = regexp.MustCompile(`(?i)\b(Q[1-4]\s*\d{4}|\d{4}|sprint\s*\d+|weekly|monthly|quarterly|annual)\b`)

// extraction holds what the intelligent strategy pulled from a note.
type extraction struct {
	entities     []string // capitalized proper nouns that repeat
	technologies []string
	docTypes     []string
	themes       []string
	temporal     string
}

var properNounRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}\b`)

var commonCapitalized = map[string]bool{
	"The": true, "This": true, "That": true, "With": true, "From": true,
	"When": true, "What": true, "Where": true, "Notes": true, "Note": true,
	"Para": true, "Los": true, "Las": true, "Una": true, "Este": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// extract mines a note for naming components.
func extract(note *models.Note) extraction {
	text := note.Title + "\n" + note.Body
	lower := strings.ToLower(text)

	var ex extraction
	ex.technologies = matchTerms(lower, technologyTerms)
	ex.docTypes = matchTerms(lower, documentTypeTerms)
	ex.themes = matchTerms(lower, actionThemeTerms)

	if m := temporalMarkerRe.FindString(text); m != "" {
		ex.temporal = strings.Join(strings.Fields(m), " ")
	}

	// Proper nouns that appear more than once are likely the note's
	// subject: a client, a product, a place.
	counts := make(map[string]int)
	for _, m := range properNounRe.FindAllString(text, -1) {
		if !commonCapitalized[m] {
			counts[m]++
		}
	}
	type freq struct {
		word string
		n    int
	}
	var ranked []freq
	for w, n := range counts {
		if n >= 2 {
			ranked = append(ranked, freq{w, n})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].word < ranked[j].word
	})
	for i := 0; i < len(ranked) && i < 3; i++ {
		ex.entities = append(ex.entities, ranked[i].word)
	}

	return ex
}

// matchTerms returns dictionary terms present in the text, title-cased,
// in dictionary order.
func matchTerms(lower string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if strings.Contains(lower, term) {
			found = append(found, titleCase(term))
		}
	}
	return found
}

// IntelligentName assembles a folder name from extracted components
// using a category-specific template. The result is deterministic for
// the same note. An empty result means the strategy found nothing and
// the caller should fall back to the traditional strategy.
func IntelligentName(note *models.Note, category models.Category, maxLen int) string {
	ex := extract(note)

	var components []string
	used := make(map[string]bool)
	add := func(c string) {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || used[key] || len(components) >= 3 {
			return
		}
		components = append(components, c)
		used[key] = true
	}

	switch category {
	case models.CategoryProjects:
		// Projects: Entity Theme Type
		if len(ex.entities) > 0 {
			add(ex.entities[0])
		}
		if len(ex.themes) > 0 {
			add(ex.themes[0])
		}
		if len(components) < 3 && len(ex.docTypes) > 0 {
			add(ex.docTypes[0])
		}
	case models.CategoryResources:
		// Resources: Technology Theme
		if len(ex.technologies) > 0 {
			add(ex.technologies[0])
		}
		if len(ex.themes) > 0 {
			add(ex.themes[0])
		}
		if len(components) < 2 && len(ex.docTypes) > 0 {
			add(ex.docTypes[0])
		}
	default:
		// Areas and Archive: Theme Subtheme
		if len(ex.themes) > 0 {
			add(ex.themes[0])
		}
		if len(ex.docTypes) > 0 {
			add(ex.docTypes[0])
		}
		if len(ex.entities) > 0 {
			add(ex.entities[0])
		}
	}

	if len(components) < 3 && ex.temporal != "" {
		add(ex.temporal)
	}

	if len(components) == 0 {
		return ""
	}

	return TruncateWholeWords(titleCase(strings.Join(components, " ")), maxLen)
}

// titleCase uppercases the first letter of each word without touching
// the rest, so acronyms and "Q3 2025" survive.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
