package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/analyzer"
	"github.com/parakeep/organizer/internal/database"
	"github.com/parakeep/organizer/internal/decision"
	"github.com/parakeep/organizer/internal/models"
	"github.com/parakeep/organizer/internal/naming"
	"github.com/parakeep/organizer/internal/services/ai"
	"github.com/parakeep/organizer/internal/vault"
	"github.com/parakeep/organizer/internal/weights"
)

// SemanticSuggester is the neighborhood-vote classifier feeding the engine.
type SemanticSuggester interface {
	Suggest(ctx context.Context, notePath, text string) models.Verdict
}

// Engine runs the full classification pipeline for one note: archive
// preservation, content analysis, both classifiers, weighting, the final
// decision, folder naming, and the audit record.
type Engine struct {
	vault      *vault.Vault
	analyzer   *analyzer.Analyzer
	suggester  SemanticSuggester
	classifier ai.Classifier
	weights    *weights.Calculator
	maker      *decision.Maker
	namer      *naming.Namer
	records    database.ClassificationRecordRepositoryInterface
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine wires the pipeline. classifier and records may be nil: the
// engine then runs semantic-only and skips audit persistence.
func NewEngine(
	v *vault.Vault,
	contentAnalyzer *analyzer.Analyzer,
	suggester SemanticSuggester,
	classifier ai.Classifier,
	calculator *weights.Calculator,
	maker *decision.Maker,
	namer *naming.Namer,
	records database.ClassificationRecordRepositoryInterface,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		vault:      v,
		analyzer:   contentAnalyzer,
		suggester:  suggester,
		classifier: classifier,
		weights:    calculator,
		maker:      maker,
		namer:      namer,
		records:    records,
		logger:     logger,
		now:        time.Now,
	}
}

// Result is the outcome of running the pipeline for one note.
type Result struct {
	NotePath string
	Decision *models.Decision
	NewPath  string
	Moved    bool
}

// Summary aggregates a batch run over a vault.
type Summary struct {
	Processed int
	Moved     int
	Preserved int
	Failed    int
}

// Classify runs the pipeline for one note without moving it.
func (e *Engine) Classify(ctx context.Context, notePath string) (*Result, error) {
	note, err := e.vault.ReadNote(notePath)
	if err != nil {
		return nil, err
	}
	return e.classifyNote(ctx, note)
}

// Organize classifies one note and moves it to the decided folder. Notes
// preserved in the Archive tree are not moved.
func (e *Engine) Organize(ctx context.Context, notePath string) (*Result, error) {
	result, err := e.Classify(ctx, notePath)
	if err != nil {
		return nil, err
	}
	return e.applyMove(result)
}

// OrganizeVault runs the pipeline over every inbox and unfiled note in
// the vault. Per-note failures are logged and counted; the batch
// continues. Rate-limit and quota errors abort the batch so the caller
// can back off and resume.
func (e *Engine) OrganizeVault(ctx context.Context) (*Summary, error) {
	notes, err := e.vault.ScanNotes()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, note := range notes {
		if !e.needsOrganizing(note) {
			continue
		}

		result, err := e.classifyNote(ctx, note)
		if err != nil {
			if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
				return summary, err
			}
			e.logger.Warn("note_classification_failed",
				zap.String("note_path", note.Path),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}
		summary.Processed++

		if result.Decision.Method == models.MethodArchivePreservation {
			summary.Preserved++
			continue
		}

		if _, err := e.applyMove(result); err != nil {
			e.logger.Warn("note_move_failed",
				zap.String("note_path", note.Path),
				zap.Error(err),
			)
			summary.Failed++
			continue
		}
		if result.Moved {
			summary.Moved++
		}
	}

	return summary, nil
}

// classifyNote is the core pipeline. The note must already be loaded.
func (e *Engine) classifyNote(ctx context.Context, note *models.Note) (*Result, error) {
	e.analyzer.ParseNote(note)
	now := e.now()
	analysis := e.analyzer.Analyze(note, now)

	// Archived content that still reads as settled stays where it is,
	// without spending a classifier call on it.
	if reason, preserve := e.maker.PreserveInArchive(analysis); preserve {
		d := e.maker.PreservationDecision(analysis, currentSubfolder(note), reason)
		result := &Result{NotePath: note.Path, Decision: d}
		e.record(ctx, note, d)
		return result, nil
	}

	semantic, llm, err := e.runClassifiers(ctx, note)
	if err != nil {
		return nil, err
	}

	w, trace := e.weights.Compute(ctx, analysis, semantic, now)
	e.logger.Debug("weights_computed",
		zap.String("note_path", note.Path),
		zap.Float64("semantic", w.Semantic),
		zap.Float64("llm", w.LLM),
		zap.String("factors", weights.DescribeTrace(trace)),
	)

	d, err := e.maker.Decide(semantic, llm, w)
	if err != nil {
		return nil, fmt.Errorf("classifying %s: %w", note.Path, err)
	}

	d.FolderName = e.nameFolder(note, d)

	result := &Result{NotePath: note.Path, Decision: d}
	e.record(ctx, note, d)
	return result, nil
}

// runClassifiers asks both classifiers, the LLM concurrently with the
// semantic vote. The semantic side never errors; LLM transport failures
// degrade to an unknown verdict except for rate-limit and quota errors,
// which propagate so the caller can retry later.
func (e *Engine) runClassifiers(ctx context.Context, note *models.Note) (models.Verdict, models.Verdict, error) {
	type llmAnswer struct {
		verdict models.Verdict
		err     error
	}

	llmCh := make(chan llmAnswer, 1)
	go func() {
		if e.classifier == nil {
			llmCh <- llmAnswer{verdict: unknownVerdict("no llm classifier configured")}
			return
		}

		llmCtx := context.WithValue(ctx, ai.NotePathContextKey(), note.Path)
		classification, err := e.classifier.ClassifyNote(llmCtx, note.Title, note.Content)
		if err != nil {
			if ai.IsRateLimitError(err) || ai.IsQuotaError(err) {
				llmCh <- llmAnswer{err: err}
				return
			}
			e.logger.Warn("llm_classifier_degraded",
				zap.String("note_path", note.Path),
				zap.Error(err),
			)
			llmCh <- llmAnswer{verdict: unknownVerdict("llm unavailable")}
			return
		}
		llmCh <- llmAnswer{verdict: models.Verdict{
			Category:   classification.Category,
			FolderName: classification.FolderName,
			Confidence: classification.Confidence,
			Reasoning:  classification.Reasoning,
		}}
	}()

	semantic := e.suggester.Suggest(ctx, note.Path, note.Content)

	answer := <-llmCh
	if answer.err != nil {
		return models.Verdict{}, models.Verdict{}, answer.err
	}
	return semantic, answer.verdict, nil
}

// nameFolder settles the final folder name, consolidating into an
// existing near-duplicate folder when one already holds the theme.
func (e *Engine) nameFolder(note *models.Note, d *models.Decision) string {
	name := e.namer.Name(note, d.Category, d.FolderName)

	counts, err := e.vault.FolderCounts(d.Category)
	if err != nil {
		e.logger.Warn("folder_counts_failed",
			zap.String("category", string(d.Category)),
			zap.Error(err),
		)
		return name
	}
	return e.namer.EnsureUnique(name, counts)
}

// applyMove moves the note when the decision points somewhere else.
func (e *Engine) applyMove(result *Result) (*Result, error) {
	d := result.Decision
	if d.Method == models.MethodArchivePreservation {
		return result, nil
	}

	target := d.TargetPath()
	if target == "" {
		return result, nil
	}
	if path.Dir(result.NotePath) == target {
		// Already in place.
		return result, nil
	}

	note := &models.Note{Path: result.NotePath}
	newPath, err := e.vault.MoveNote(note, target)
	if err != nil {
		return result, err
	}
	result.NewPath = newPath
	result.Moved = true
	return result, nil
}

// needsOrganizing filters the batch to inbox notes and notes sitting
// loose outside every category tree. Filed notes and the Archive tree
// are handled by explicit single-note runs.
func (e *Engine) needsOrganizing(note *models.Note) bool {
	folder := note.CurrentFolder()
	if folder == models.CategoryMapping[models.CategoryInbox] {
		return true
	}
	for _, name := range models.CategoryMapping {
		if folder == name {
			return false
		}
	}
	return true
}

// record persists the audit row; persistence failures are logged, never
// fatal to the classification itself.
func (e *Engine) record(ctx context.Context, note *models.Note, d *models.Decision) {
	if e.records == nil {
		return
	}

	rec := &models.ClassificationRecord{
		NotePath:      note.Path,
		Category:      d.Category,
		FolderName:    d.FolderName,
		Confidence:    d.Confidence,
		Method:        d.Method,
		Reasoning:     d.Reasoning,
		SemanticScore: d.SemanticScore,
		LLMScore:      d.LLMScore,
	}
	if err := e.records.Create(ctx, rec); err != nil {
		e.logger.Warn("audit_record_failed",
			zap.String("note_path", note.Path),
			zap.Error(err),
		)
	}
}

// currentSubfolder returns the note's folder inside its category tree.
func currentSubfolder(note *models.Note) string {
	dir := path.Dir(note.Path)
	parts := strings.SplitN(dir, "/", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func unknownVerdict(reason string) models.Verdict {
	return models.Verdict{Category: models.CategoryUnknown, Reasoning: reason}
}
