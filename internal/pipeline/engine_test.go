package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/parakeep/organizer/internal/analyzer"
	"github.com/parakeep/organizer/internal/config"
	"github.com/parakeep/organizer/internal/decision"
	"github.com/parakeep/organizer/internal/dedupe"
	"github.com/parakeep/organizer/internal/models"
	"github.com/parakeep/organizer/internal/naming"
	"github.com/parakeep/organizer/internal/services/ai"
	"github.com/parakeep/organizer/internal/vault"
	"github.com/parakeep/organizer/internal/weights"
)

type fakeSuggester struct {
	verdict models.Verdict
	calls   atomic.Int32
}

func (f *fakeSuggester) Suggest(ctx context.Context, notePath, text string) models.Verdict {
	f.calls.Add(1)
	return f.verdict
}

type fakeClassifier struct {
	classification *ai.Classification
	err            error
	calls          atomic.Int32
}

func (f *fakeClassifier) ClassifyNote(ctx context.Context, title, content string) (*ai.Classification, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.classification, nil
}

type fakeRecordRepo struct {
	records []*models.ClassificationRecord
	err     error
}

func (f *fakeRecordRepo) Create(ctx context.Context, record *models.ClassificationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ClassificationRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecordRepo) GetLatestByNotePath(ctx context.Context, notePath string) (*models.ClassificationRecord, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRecordRepo) ListPaginated(ctx context.Context, page, pageSize int) ([]*models.ClassificationRecord, int, error) {
	return f.records, len(f.records), nil
}

func writeNote(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}
}

func newTestEngine(t *testing.T, suggester SemanticSuggester, classifier ai.Classifier, records *fakeRecordRepo) (*Engine, *vault.Vault) {
	t.Helper()

	v, err := vault.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to open vault: %v", err)
	}

	h := config.DefaultHeuristics()
	resolver := dedupe.NewResolver(h.Dedupe.SimilarityThreshold, nil)
	engine := NewEngine(
		v,
		analyzer.NewAnalyzer(nil),
		suggester,
		classifier,
		weights.NewCalculator(h.Weights, nil, nil),
		decision.NewMaker(h.Decision, h.Archive, nil),
		naming.NewNamer(h.Naming.MaxNameLength, resolver, nil),
		records,
		nil,
	)
	return engine, v
}

func TestOrganize_ConsensusMeetingNote(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{
		Category:   models.CategoryAreas,
		FolderName: "Team Sync",
		Confidence: 0.8,
	}}
	classifier := &fakeClassifier{classification: &ai.Classification{
		Category:   models.CategoryAreas,
		FolderName: "Team Sync",
		Confidence: 0.7,
		Reasoning:  "recurring meeting cadence",
	}}
	records := &fakeRecordRepo{}
	engine, v := newTestEngine(t, suggester, classifier, records)

	writeNote(t, v.Root(), "00-Inbox/sync.md",
		"---\ntitle: Team Sync\n---\nRecurring weekly sync with the team. Standing agenda and notes.")

	result, err := engine.Organize(context.Background(), "00-Inbox/sync.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	d := result.Decision
	if d.Method != models.MethodConsensus {
		t.Errorf("Method = %s, want consensus", d.Method)
	}
	if d.Category != models.CategoryAreas {
		t.Errorf("Category = %s, want Areas", d.Category)
	}
	if d.FolderName != "Team Sync" {
		t.Errorf("FolderName = %q, want Team Sync", d.FolderName)
	}
	if !result.Moved || result.NewPath != "02-Areas/Team Sync/sync.md" {
		t.Errorf("NewPath = %q (moved=%v), want 02-Areas/Team Sync/sync.md", result.NewPath, result.Moved)
	}
	if len(records.records) != 1 {
		t.Fatalf("records = %d, want exactly one audit row", len(records.records))
	}
	if records.records[0].Method != models.MethodConsensus {
		t.Errorf("audit method = %s, want consensus", records.records[0].Method)
	}
}

func TestClassify_UrgencyPushesSemanticWeight(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{
		Category:   models.CategoryProjects,
		FolderName: "Launch Prep",
		Confidence: 0.9,
	}}
	classifier := &fakeClassifier{classification: &ai.Classification{
		Category:   models.CategoryResources,
		FolderName: "Launch Notes",
		Confidence: 0.6,
	}}
	engine, v := newTestEngine(t, suggester, classifier, &fakeRecordRepo{})

	writeNote(t, v.Root(), "00-Inbox/launch.md",
		"URGENT: launch deadline is tomorrow!! Everything must ship asap.\n- [ ] final checks\n- [ ] press release\n- [ ] rollback plan")

	result, err := engine.Classify(context.Background(), "00-Inbox/launch.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	d := result.Decision
	if d.Category != models.CategoryProjects {
		t.Errorf("Category = %s, want Projects (semantic side)", d.Category)
	}
	if d.Method != models.MethodSemanticWeighted {
		t.Errorf("Method = %s, want chromadb_weighted", d.Method)
	}
}

func TestClassify_ArchivePreservationShortCircuits(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{Category: models.CategoryProjects, Confidence: 0.9}}
	classifier := &fakeClassifier{classification: &ai.Classification{Category: models.CategoryProjects, Confidence: 0.9}}
	records := &fakeRecordRepo{}
	engine, v := newTestEngine(t, suggester, classifier, records)

	writeNote(t, v.Root(), "04-Archive/Old Launch/done.md",
		"---\nstatus: completada\n---\nProyecto completado.")

	result, err := engine.Classify(context.Background(), "04-Archive/Old Launch/done.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	d := result.Decision
	if d.Method != models.MethodArchivePreservation {
		t.Errorf("Method = %s, want archive_preservation", d.Method)
	}
	if d.Category != models.CategoryArchive {
		t.Errorf("Category = %s, want Archive", d.Category)
	}
	if d.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", d.Confidence)
	}
	if d.FolderName != "Old Launch" {
		t.Errorf("FolderName = %q, want the current folder kept", d.FolderName)
	}
	if suggester.calls.Load() != 0 || classifier.calls.Load() != 0 {
		t.Error("classifiers must not be called for preserved archive notes")
	}
	if len(records.records) != 1 {
		t.Errorf("records = %d, preservation should still be audited", len(records.records))
	}
}

func TestClassify_LLMUnavailableDegradesToSemanticOnly(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{
		Category:   models.CategoryResources,
		FolderName: "Docker",
		Confidence: 0.8,
	}}
	classifier := &fakeClassifier{err: errors.New("dial tcp: connection refused")}
	engine, v := newTestEngine(t, suggester, classifier, &fakeRecordRepo{})

	writeNote(t, v.Root(), "00-Inbox/docker.md", "Notes on docker networking and volumes.")

	result, err := engine.Classify(context.Background(), "00-Inbox/docker.md")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Decision.Method != models.MethodSemanticOnly {
		t.Errorf("Method = %s, want chromadb_only", result.Decision.Method)
	}
	if result.Decision.Category != models.CategoryResources {
		t.Errorf("Category = %s, want Resources", result.Decision.Category)
	}
}

func TestClassify_RateLimitPropagates(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{Category: models.CategoryAreas, Confidence: 0.5}}
	classifier := &fakeClassifier{err: &ai.APIError{StatusCode: 429, Type: "rate_limit_error", Message: "slow down"}}
	engine, v := newTestEngine(t, suggester, classifier, &fakeRecordRepo{})

	writeNote(t, v.Root(), "00-Inbox/note.md", "some text")

	_, err := engine.Classify(context.Background(), "00-Inbox/note.md")
	if err == nil {
		t.Fatal("Expected rate limit error to propagate")
	}
	if !ai.IsRateLimitError(err) {
		t.Errorf("error %v should classify as rate limit", err)
	}
}

func TestClassify_NoClassifiersErrors(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{Category: models.CategoryUnknown}}
	engine, v := newTestEngine(t, suggester, nil, &fakeRecordRepo{})

	writeNote(t, v.Root(), "00-Inbox/empty.md", "x")

	_, err := engine.Classify(context.Background(), "00-Inbox/empty.md")
	if !errors.Is(err, decision.ErrNoClassifiers) {
		t.Errorf("err = %v, want ErrNoClassifiers", err)
	}
}

func TestOrganizeVault_SkipsFiledNotes(t *testing.T) {
	t.Parallel()

	suggester := &fakeSuggester{verdict: models.Verdict{
		Category:   models.CategoryResources,
		FolderName: "Reading",
		Confidence: 0.8,
	}}
	engine, v := newTestEngine(t, suggester, nil, &fakeRecordRepo{})

	writeNote(t, v.Root(), "00-Inbox/a.md", "an article to file somewhere")
	writeNote(t, v.Root(), "loose.md", "a loose note at the vault root")
	writeNote(t, v.Root(), "01-Projects/Site/keep.md", "already filed")

	summary, err := engine.OrganizeVault(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Processed != 2 {
		t.Errorf("Processed = %d, want 2 (inbox + loose note)", summary.Processed)
	}
	if summary.Moved != 2 {
		t.Errorf("Moved = %d, want 2", summary.Moved)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "01-Projects/Site/keep.md")); err != nil {
		t.Error("filed note must not be touched")
	}
}

func TestOrganizeVault_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	// Unknown verdicts with no LLM make every note fail classification.
	suggester := &fakeSuggester{verdict: models.Verdict{Category: models.CategoryUnknown}}
	engine, v := newTestEngine(t, suggester, nil, &fakeRecordRepo{})

	writeNote(t, v.Root(), "00-Inbox/a.md", "first")
	writeNote(t, v.Root(), "00-Inbox/b.md", "second")

	summary, err := engine.OrganizeVault(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.Failed != 2 {
		t.Errorf("Failed = %d, want 2", summary.Failed)
	}
	if summary.Processed != 0 {
		t.Errorf("Processed = %d, want 0", summary.Processed)
	}
}
