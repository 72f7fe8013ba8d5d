package models

import "strings"

// Category is one of the four fixed PARA buckets, plus the Inbox staging
// area and an Unknown sentinel for "no answer".
type Category string

const (
	CategoryProjects  Category = "Projects"
	CategoryAreas     Category = "Areas"
	CategoryResources Category = "Resources"
	CategoryArchive   Category = "Archive"
	CategoryInbox     Category = "Inbox"
	CategoryUnknown   Category = "Unknown"
)

// CategoryMapping maps each category to its numbered vault folder. This is
// the single source of truth for folder prefixes; nothing else in the
// codebase hardcodes them.
var CategoryMapping = map[Category]string{
	CategoryInbox:     "00-Inbox",
	CategoryProjects:  "01-Projects",
	CategoryAreas:     "02-Areas",
	CategoryResources: "03-Resources",
	CategoryArchive:   "04-Archive",
}

// FolderName returns the numbered vault folder for the category, or an
// empty string for Unknown.
func (c Category) FolderName() string {
	return CategoryMapping[c]
}

// IsTerminal reports whether the category is one of the four PARA buckets
// a note can finally land in.
func (c Category) IsTerminal() bool {
	switch c {
	case CategoryProjects, CategoryAreas, CategoryResources, CategoryArchive:
		return true
	}
	return false
}

// categoryAliases maps every label variant the classifier sources emit to
// its canonical category. Lookup keys are lowercase with the numbered
// folder prefix already stripped.
var categoryAliases = map[string]Category{
	"projects":  CategoryProjects,
	"project":   CategoryProjects,
	"proyecto":  CategoryProjects,
	"proyectos": CategoryProjects,
	"areas":     CategoryAreas,
	"area":      CategoryAreas,
	"área":      CategoryAreas,
	"áreas":     CategoryAreas,
	"resources": CategoryResources,
	"resource":  CategoryResources,
	"recurso":   CategoryResources,
	"recursos":  CategoryResources,
	"archive":   CategoryArchive,
	"archived":  CategoryArchive,
	"archivo":   CategoryArchive,
	"archivos":  CategoryArchive,
	"inbox":     CategoryInbox,
	"entrada":   CategoryInbox,
	"unknown":   CategoryUnknown,
}

// folderPrefixes are the numbered prefixes stripped before alias lookup.
var folderPrefixes = []string{"00-", "01-", "02-", "03-", "04-"}

// NormalizeCategory maps an arbitrary label to a canonical category. The
// function is total: empty input yields Unknown, any other unrecognized
// label yields Resources. Canonical categories map to themselves.
func NormalizeCategory(label string) Category {
	s := strings.TrimSpace(label)
	if s == "" {
		return CategoryUnknown
	}

	s = strings.ToLower(s)
	for _, prefix := range folderPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.TrimSpace(strings.Trim(s, "\"'"))

	if c, ok := categoryAliases[s]; ok {
		return c
	}
	return CategoryResources
}
