package analyzer

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/parakeep/organizer/internal/models"
)

// Analyzer extracts the feature vector a note's classification is based
// on. It holds no per-note state; one instance serves all goroutines.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a content analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

var (
	pendingTaskRe   = regexp.MustCompile(`(?m)^\s*[-*]\s*\[ \]`)
	completedTaskRe = regexp.MustCompile(`(?m)^\s*[-*]\s*\[[xX]\]`)
	headingRe       = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	wikiLinkRe      = regexp.MustCompile(`\[\[[^\]]+\]\]`)
	mdLinkRe        = regexp.MustCompile(`\[[^\]]*\]\([^)]+\)`)
	codeFenceRe     = regexp.MustCompile("(?m)^```")
	inlineTagRe     = regexp.MustCompile(`(?:^|\s)#([\p{L}\d_/-]+)`)
	isoDateRe       = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// frontmatter is the subset of YAML frontmatter fields the engine reads.
type frontmatter struct {
	Title  string   `yaml:"title"`
	Status string   `yaml:"status"`
	Tags   []string `yaml:"tags"`
}

// Analyze computes the feature vector for a note.
func (a *Analyzer) Analyze(note *models.Note, now time.Time) *models.ContentAnalysis {
	body := note.Body
	if body == "" {
		body = stripFrontmatter(note.Content)
	}
	lower := strings.ToLower(body)

	analysis := &models.ContentAnalysis{
		WordCount:      len(strings.Fields(body)),
		CharCount:      len(strings.TrimSpace(body)),
		LinkCount:      len(wikiLinkRe.FindAllString(body, -1)) + len(mdLinkRe.FindAllString(body, -1)),
		HeadingCount:   len(headingRe.FindAllString(body, -1)),
		HasCode:        len(codeFenceRe.FindAllString(body, -1)) >= 2,
		PendingTasks:   len(pendingTaskRe.FindAllString(body, -1)),
		CompletedTasks: len(completedTaskRe.FindAllString(body, -1)),

		ProjectSignals:  countHits(lower, projectKeywords),
		AreaSignals:     countHits(lower, areaKeywords),
		ResourceSignals: countHits(lower, resourceKeywords),
		ArchiveSignals:  countHits(lower, archiveKeywords),
		UrgencySignals:  countUrgency(body, lower),

		Tags:          note.Tags,
		CurrentFolder: note.CurrentFolder(),
		InArchiveTree: note.InArchive(),
	}

	status := strings.ToLower(strings.TrimSpace(note.Status))
	analysis.HasCompletedStatus = matchesAny(status, completedStatusValues)
	analysis.HasActiveStatus = matchesAny(status, activeStatusValues)

	if d := nearestDate(body, now); d != nil {
		analysis.NearestDate = d
	}

	if !note.ModifiedAt.IsZero() {
		analysis.DaysSinceModified = int(now.Sub(note.ModifiedAt).Hours() / 24)
	}
	if note.AccessedAt != nil {
		analysis.DaysSinceAccessed = int(now.Sub(*note.AccessedAt).Hours() / 24)
	} else {
		analysis.DaysSinceAccessed = analysis.DaysSinceModified
	}

	a.logger.Debug("content_analysis",
		zap.String("note_path", note.Path),
		zap.Int("word_count", analysis.WordCount),
		zap.Int("pending_tasks", analysis.PendingTasks),
		zap.Int("urgency_signals", analysis.UrgencySignals),
		zap.Bool("in_archive_tree", analysis.InArchiveTree),
	)

	return analysis
}

// ParseNote fills a Note's derived fields (body, tags, status, title)
// from its raw content.
func (a *Analyzer) ParseNote(note *models.Note) {
	fm, body := parseFrontmatter(note.Content)
	note.Body = body

	if fm != nil {
		note.Status = fm.Status
		if fm.Title != "" && note.Title == "" {
			note.Title = fm.Title
		}
		for _, tag := range fm.Tags {
			note.Tags = appendTag(note.Tags, tag)
		}
	}

	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		note.Tags = appendTag(note.Tags, m[1])
	}
}

// parseFrontmatter splits YAML frontmatter from the markdown body. Invalid
// YAML is treated as body text rather than failing the note.
func parseFrontmatter(content string) (*frontmatter, string) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return nil, content
	}

	rest := content[strings.Index(content, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return nil, content
	}

	raw := rest[:end]
	body := rest[end+len("\n---"):]
	if idx := strings.Index(body, "\n"); idx != -1 {
		body = body[idx+1:]
	} else {
		body = ""
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, content
	}
	return &fm, body
}

func stripFrontmatter(content string) string {
	_, body := parseFrontmatter(content)
	return body
}

func appendTag(tags []string, tag string) []string {
	tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
	if !isValidTag(tag) {
		return tags
	}
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}
	return append(tags, tag)
}

// isValidTag drops tokens that carry no topical signal: bare numbers
// (years, issue ids), single characters, long digit-bearing identifiers,
// and nested or re-prefixed tags.
func isValidTag(tag string) bool {
	if len(tag) <= 1 {
		return false
	}
	if strings.ContainsAny(tag, "/#") {
		return false
	}
	hasDigit := false
	allDigits := true
	for _, r := range tag {
		if r >= '0' && r <= '9' {
			hasDigit = true
		} else {
			allDigits = false
		}
	}
	if allDigits {
		return false
	}
	if hasDigit && len(tag) > 20 {
		return false
	}
	return true
}

func countHits(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		count += strings.Count(lower, kw)
	}
	return count
}

func matchesAny(value string, candidates []string) bool {
	for _, c := range candidates {
		if value == c {
			return true
		}
	}
	return false
}

// countUrgency counts urgency keywords plus shouting signals. Exclamation
// marks count half, all-caps words a third, rounded down together.
func countUrgency(body, lower string) int {
	count := countHits(lower, urgencyKeywords)

	exclamations := strings.Count(body, "!")
	capsWords := 0
	for _, word := range strings.Fields(body) {
		if len(word) > 2 && word == strings.ToUpper(word) && word != strings.ToLower(word) {
			capsWords++
		}
	}

	return count + exclamations/2 + capsWords/3
}

// nearestDate returns the explicit ISO date closest to now, or nil.
func nearestDate(body string, now time.Time) *time.Time {
	var best *time.Time
	var bestDist time.Duration

	for _, m := range isoDateRe.FindAllString(body, -1) {
		d, err := time.Parse("2006-01-02", m)
		if err != nil {
			continue
		}
		dist := now.Sub(d)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			t := d
			best = &t
			bestDist = dist
		}
	}

	return best
}
