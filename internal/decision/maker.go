package decision

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/config"
	"github.com/parakeep/organizer/internal/models"
)

// ErrNoClassifiers is returned when neither classifier produced a verdict
// for a note. The caller records the failure and moves on; a batch never
// stops for one note.
var ErrNoClassifiers = errors.New("no classifier produced a verdict")

// Maker combines the two classifier verdicts into a final decision.
type Maker struct {
	tuning  config.DecisionTuning
	archive config.ArchiveTuning
	logger  *zap.Logger
}

// NewMaker creates a decision maker.
func NewMaker(tuning config.DecisionTuning, archive config.ArchiveTuning, logger *zap.Logger) *Maker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Maker{
		tuning:  tuning,
		archive: archive,
		logger:  logger,
	}
}

// PreserveInArchive decides whether a note already under the Archive tree
// should stay there without consulting any classifier. Indicators for
// staying are weighed against reactivation indicators, mirroring how a
// person skims an archived note: settled content stays put, a note
// someone is clearly working on again gets reclassified.
func (m *Maker) PreserveInArchive(analysis *models.ContentAnalysis) (string, bool) {
	if !analysis.InArchiveTree {
		return "", false
	}

	stale := analysis.DaysSinceModified >= m.archive.StaleAfterDays

	archiveVotes := 0
	var reason string
	if analysis.HasCompletedStatus || analysis.ArchiveSignals > 0 {
		archiveVotes++
		reason = "completed or obsolete content"
	}
	if stale && analysis.DaysSinceAccessed >= m.archive.QuietWindowDays {
		archiveVotes++
		if reason == "" {
			reason = fmt.Sprintf("untouched for %d days", analysis.DaysSinceModified)
		}
	}
	if analysis.CharCount > 0 && analysis.CharCount < m.archive.StubMaxChars {
		archiveVotes++
		if reason == "" {
			reason = "stub note"
		}
	}
	if analysis.PendingTasks > m.archive.MaxPendingAllowed && analysis.DaysSinceModified >= m.archive.QuietWindowDays {
		archiveVotes++
		if reason == "" {
			reason = "abandoned task list"
		}
	}

	reactivationVotes := 0
	if analysis.DaysSinceModified < m.archive.QuietWindowDays {
		reactivationVotes++
	}
	if analysis.UrgencySignals > 0 {
		reactivationVotes++
	}
	if analysis.HasActiveStatus {
		reactivationVotes++
	}

	if archiveVotes > reactivationVotes {
		return reason, true
	}
	return "", false
}

// PreservationDecision builds the short-circuit decision for a note kept
// in the Archive tree. The note keeps its current folder.
func (m *Maker) PreservationDecision(analysis *models.ContentAnalysis, folderName, reason string) *models.Decision {
	return &models.Decision{
		Category:   models.CategoryArchive,
		FolderName: folderName,
		Confidence: m.tuning.PreservationScore,
		Method:     models.MethodArchivePreservation,
		Reasoning:  "kept in archive: " + reason,
	}
}

// Decide combines both verdicts under the given weights.
func (m *Maker) Decide(semantic, llm models.Verdict, w models.WeightVector) (*models.Decision, error) {
	semanticKnown := semantic.Category != models.CategoryUnknown
	llmKnown := llm.Category != models.CategoryUnknown

	switch {
	case !semanticKnown && !llmKnown:
		return nil, ErrNoClassifiers
	case semanticKnown && !llmKnown:
		return m.semanticOnly(semantic, w), nil
	case !semanticKnown && llmKnown:
		return m.llmOnly(llm, w), nil
	}

	if semantic.Category == llm.Category {
		return m.consensus(semantic, llm, w), nil
	}
	return m.discrepancy(semantic, llm, w), nil
}

// consensus rewards agreement with a confidence bonus.
func (m *Maker) consensus(semantic, llm models.Verdict, w models.WeightVector) *models.Decision {
	confidence := semantic.Confidence*w.Semantic + llm.Confidence*w.LLM + m.tuning.ConsensusBonus
	if confidence > m.tuning.ConsensusCap {
		confidence = m.tuning.ConsensusCap
	}

	d := &models.Decision{
		Category:      semantic.Category,
		FolderName:    pickFolder(llm.FolderName, semantic.FolderName),
		Confidence:    confidence,
		Method:        models.MethodConsensus,
		Reasoning:     fmt.Sprintf("both classifiers agree on %s", semantic.Category),
		SemanticScore: semantic.Confidence,
		LLMScore:      llm.Confidence,
	}
	m.logDecision(d)
	return d
}

// discrepancy lets the weighted scores compete. The loser still blends in
// a fraction of its score so a near-tie never looks certain.
func (m *Maker) discrepancy(semantic, llm models.Verdict, w models.WeightVector) *models.Decision {
	semanticScore := semantic.Confidence * w.Semantic
	llmScore := llm.Confidence * w.LLM

	d := &models.Decision{
		SemanticScore: semantic.Confidence,
		LLMScore:      llm.Confidence,
	}

	if semanticScore >= llmScore {
		d.Category = semantic.Category
		d.FolderName = semantic.FolderName
		d.Method = models.MethodSemanticWeighted
		d.Confidence = semanticScore + llmScore*m.tuning.DiscrepancyBlend
		d.Reasoning = fmt.Sprintf("neighborhood (%.2f) outweighs model (%.2f); %s over %s",
			semanticScore, llmScore, semantic.Category, llm.Category)
	} else {
		d.Category = llm.Category
		d.FolderName = llm.FolderName
		d.Method = models.MethodLLMWeighted
		d.Confidence = llmScore + semanticScore*m.tuning.DiscrepancyBlend
		d.Reasoning = fmt.Sprintf("model (%.2f) outweighs neighborhood (%.2f); %s over %s",
			llmScore, semanticScore, llm.Category, semantic.Category)
	}

	if d.Confidence > m.tuning.DiscrepancyCap {
		d.Confidence = m.tuning.DiscrepancyCap
	}

	m.logDecision(d)
	return d
}

// semanticOnly is the fallback when the language model is unavailable.
func (m *Maker) semanticOnly(semantic models.Verdict, w models.WeightVector) *models.Decision {
	d := &models.Decision{
		Category:      semantic.Category,
		FolderName:    semantic.FolderName,
		Confidence:    semantic.Confidence * w.Semantic,
		Method:        models.MethodSemanticOnly,
		Reasoning:     "language model unavailable, neighborhood verdict only",
		SemanticScore: semantic.Confidence,
	}
	m.logDecision(d)
	return d
}

// llmOnly covers notes with no classified neighborhood at all.
func (m *Maker) llmOnly(llm models.Verdict, w models.WeightVector) *models.Decision {
	d := &models.Decision{
		Category:   llm.Category,
		FolderName: llm.FolderName,
		Confidence: llm.Confidence * w.LLM,
		Method:     models.MethodLLMWeighted,
		Reasoning:  "no classified neighbors, model verdict only",
		LLMScore:   llm.Confidence,
	}
	m.logDecision(d)
	return d
}

func (m *Maker) logDecision(d *models.Decision) {
	m.logger.Debug("classification_decision",
		zap.String("category", string(d.Category)),
		zap.String("method", string(d.Method)),
		zap.Float64("confidence", d.Confidence),
	)
}

// pickFolder prefers the model's folder suggestion unless it is empty or
// the "Unknown" placeholder some models emit instead of a real name.
func pickFolder(first, second string) string {
	if first == "" || strings.EqualFold(first, "unknown") {
		return second
	}
	return first
}
