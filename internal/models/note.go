package models

import (
	"time"

	"github.com/google/uuid"
)

// Note is a markdown note read from the vault.
type Note struct {
	ID         uuid.UUID  `json:"id"`
	Path       string     `json:"path"`     // path relative to the vault root
	Title      string     `json:"title"`    // filename without extension
	Content    string     `json:"content"`  // full raw content including frontmatter
	Body       string     `json:"body"`     // content with frontmatter stripped
	Tags       []string   `json:"tags"`     // frontmatter + inline tags, lowercased
	Status     string     `json:"status"`   // frontmatter status field, verbatim
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
	AccessedAt *time.Time `json:"accessed_at,omitempty"`
}

// CurrentFolder returns the top-level vault folder the note lives in, or
// an empty string for notes at the vault root.
func (n *Note) CurrentFolder() string {
	for i := 0; i < len(n.Path); i++ {
		if n.Path[i] == '/' {
			return n.Path[:i]
		}
	}
	return ""
}

// InArchive reports whether the note already lives under the Archive tree.
func (n *Note) InArchive() bool {
	return n.CurrentFolder() == CategoryMapping[CategoryArchive]
}

// ContentAnalysis is the feature vector extracted from a note. Every
// downstream scorer is a pure function of this struct; none of them go
// back to the raw note.
type ContentAnalysis struct {
	WordCount      int  `json:"word_count"`
	CharCount      int  `json:"char_count"`
	LinkCount      int  `json:"link_count"`
	HeadingCount   int  `json:"heading_count"`
	HasCode        bool `json:"has_code"`
	PendingTasks   int  `json:"pending_tasks"`
	CompletedTasks int  `json:"completed_tasks"`

	// Keyword hit counts per vocabulary.
	ProjectSignals  int `json:"project_signals"`
	AreaSignals     int `json:"area_signals"`
	ResourceSignals int `json:"resource_signals"`
	ArchiveSignals  int `json:"archive_signals"`
	UrgencySignals  int `json:"urgency_signals"`

	HasCompletedStatus bool `json:"has_completed_status"`
	HasActiveStatus    bool `json:"has_active_status"`

	// NearestDate is the closest explicit date mentioned in the note,
	// nil when none was found.
	NearestDate *time.Time `json:"nearest_date,omitempty"`

	Tags          []string `json:"tags"`
	CurrentFolder string   `json:"current_folder"`
	InArchiveTree bool     `json:"in_archive_tree"`

	DaysSinceModified int `json:"days_since_modified"`
	DaysSinceAccessed int `json:"days_since_accessed"`
}

// TaskRatio returns the completed fraction of checkbox tasks, or -1 when
// the note has none.
func (a *ContentAnalysis) TaskRatio() float64 {
	total := a.PendingTasks + a.CompletedTasks
	if total == 0 {
		return -1
	}
	return float64(a.CompletedTasks) / float64(total)
}
