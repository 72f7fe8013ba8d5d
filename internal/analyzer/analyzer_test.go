package analyzer

import (
	"testing"
	"time"

	"github.com/parakeep/organizer/internal/models"
)

func testNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestParseNote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantStatus string
		wantTitle  string
		wantTags   []string
		wantBody   string
	}{
		{
			name:       "frontmatter with status and tags",
			content:    "---\ntitle: Weekly Review\nstatus: active\ntags:\n  - work\n  - planning\n---\n# Review\n\nNotes here #extra\n",
			wantStatus: "active",
			wantTitle:  "Weekly Review",
			wantTags:   []string{"work", "planning", "extra"},
			wantBody:   "# Review\n\nNotes here #extra\n",
		},
		{
			name:     "no frontmatter",
			content:  "# Plain Note\n\nBody text\n",
			wantTags: nil,
			wantBody: "# Plain Note\n\nBody text\n",
		},
		{
			name:     "invalid frontmatter treated as body",
			content:  "---\n: not yaml [\n---\nBody\n",
			wantBody: "---\n: not yaml [\n---\nBody\n",
		},
		{
			name:     "duplicate tags collapse",
			content:  "---\ntags: [work]\n---\nMore #work here\n",
			wantTags: []string{"work"},
			wantBody: "More #work here\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewAnalyzer(nil)
			note := &models.Note{Content: tt.content}
			a.ParseNote(note)

			if note.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", note.Status, tt.wantStatus)
			}
			if tt.wantTitle != "" && note.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", note.Title, tt.wantTitle)
			}
			if note.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", note.Body, tt.wantBody)
			}
			if len(note.Tags) != len(tt.wantTags) {
				t.Fatalf("Tags = %v, want %v", note.Tags, tt.wantTags)
			}
			for i, tag := range tt.wantTags {
				if note.Tags[i] != tag {
					t.Errorf("Tags[%d] = %q, want %q", i, note.Tags[i], tag)
				}
			}
		})
	}
}

func TestParseNoteDropsInvalidTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantTags []string
	}{
		{
			name:     "numeric only",
			content:  "Planning for #2024 and #12345\n",
			wantTags: nil,
		},
		{
			name:     "single character",
			content:  "Marked #a and #x here\n",
			wantTags: nil,
		},
		{
			name:     "long identifier with digits",
			content:  "Ref #averyverylongtagname2024x\n",
			wantTags: nil,
		},
		{
			name:     "nested tag",
			content:  "See #foo/bar for details\n",
			wantTags: nil,
		},
		{
			name:     "frontmatter tags filtered too",
			content:  "---\ntags:\n  - \"2024\"\n  - work/planning\n  - budget\n---\nBody\n",
			wantTags: []string{"budget"},
		},
		{
			name:     "valid tags survive the filter",
			content:  "Notes on #budget-2024 and #planning\n",
			wantTags: []string{"budget-2024", "planning"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewAnalyzer(nil)
			note := &models.Note{Content: tt.content}
			a.ParseNote(note)

			if len(note.Tags) != len(tt.wantTags) {
				t.Fatalf("Tags = %v, want %v", note.Tags, tt.wantTags)
			}
			for i, tag := range tt.wantTags {
				if note.Tags[i] != tag {
					t.Errorf("Tags[%d] = %q, want %q", i, note.Tags[i], tag)
				}
			}
		})
	}
}

func TestAnalyzeTaskCounts(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(nil)
	note := &models.Note{
		Path: "00-Inbox/tasks.md",
		Body: "- [ ] first\n- [x] second\n- [X] third\n* [ ] fourth\n",
	}

	analysis := a.Analyze(note, testNow())

	if analysis.PendingTasks != 2 {
		t.Errorf("PendingTasks = %d, want 2", analysis.PendingTasks)
	}
	if analysis.CompletedTasks != 2 {
		t.Errorf("CompletedTasks = %d, want 2", analysis.CompletedTasks)
	}
	if ratio := analysis.TaskRatio(); ratio != 0.5 {
		t.Errorf("TaskRatio() = %v, want 0.5", ratio)
	}
}

func TestAnalyzeSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		note     *models.Note
		validate func(*testing.T, *models.ContentAnalysis)
	}{
		{
			name: "urgency keywords counted",
			note: &models.Note{Body: "URGENT!! deadline due tomorrow, this is critical"},
			validate: func(t *testing.T, an *models.ContentAnalysis) {
				if an.UrgencySignals < 3 {
					t.Errorf("UrgencySignals = %d, want >= 3", an.UrgencySignals)
				}
			},
		},
		{
			name: "resource vocabulary",
			note: &models.Note{Body: "A reference guide with best practices and fundamentals."},
			validate: func(t *testing.T, an *models.ContentAnalysis) {
				if an.ResourceSignals < 3 {
					t.Errorf("ResourceSignals = %d, want >= 3", an.ResourceSignals)
				}
			},
		},
		{
			name: "code fences detected",
			note: &models.Note{Body: "```go\nfunc main() {}\n```\n"},
			validate: func(t *testing.T, an *models.ContentAnalysis) {
				if !an.HasCode {
					t.Error("HasCode = false, want true")
				}
			},
		},
		{
			name: "links counted",
			note: &models.Note{Body: "See [[Other Note]] and [docs](https://example.com)."},
			validate: func(t *testing.T, an *models.ContentAnalysis) {
				if an.LinkCount != 2 {
					t.Errorf("LinkCount = %d, want 2", an.LinkCount)
				}
			},
		},
		{
			name: "archive tree detection",
			note: &models.Note{Path: "04-Archive/Old Project/note.md", Body: "done"},
			validate: func(t *testing.T, an *models.ContentAnalysis) {
				if !an.InArchiveTree {
					t.Error("InArchiveTree = false, want true")
				}
				if an.CurrentFolder != "04-Archive" {
					t.Errorf("CurrentFolder = %q, want 04-Archive", an.CurrentFolder)
				}
			},
		},
		{
			name: "completed status from frontmatter",
			note: &models.Note{Status: "Completado", Body: "x"},
			validate: func(t *testing.T, an *models.ContentAnalysis) {
				if !an.HasCompletedStatus {
					t.Error("HasCompletedStatus = false, want true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewAnalyzer(nil)
			tt.validate(t, a.Analyze(tt.note, testNow()))
		})
	}
}

func TestNearestDate(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(nil)
	note := &models.Note{Body: "Meeting 2025-06-20 and retro on 2024-01-01."}

	analysis := a.Analyze(note, testNow())

	if analysis.NearestDate == nil {
		t.Fatal("NearestDate = nil, want 2025-06-20")
	}
	want := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	if !analysis.NearestDate.Equal(want) {
		t.Errorf("NearestDate = %v, want %v", analysis.NearestDate, want)
	}
}

func TestAnalyzeDaysSinceModified(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(nil)
	note := &models.Note{
		Body:       "old",
		ModifiedAt: testNow().AddDate(0, 0, -200),
	}

	analysis := a.Analyze(note, testNow())

	if analysis.DaysSinceModified != 200 {
		t.Errorf("DaysSinceModified = %d, want 200", analysis.DaysSinceModified)
	}
	if analysis.DaysSinceAccessed != 200 {
		t.Errorf("DaysSinceAccessed = %d, want 200 (falls back to modified)", analysis.DaysSinceAccessed)
	}
}
