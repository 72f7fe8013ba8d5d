package weights

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/config"
	"github.com/parakeep/organizer/internal/models"
)

// CoherenceSource answers how strongly a tag is associated with one
// category across the vault. ok is false when the tag has no statistics.
type CoherenceSource interface {
	TagDominance(ctx context.Context, tag string) (models.Category, float64, bool)
}

// factorInput bundles everything a weight factor may look at.
type factorInput struct {
	analysis *models.ContentAnalysis
	semantic models.Verdict
	tuning   config.WeightTuning
	now      time.Time

	// coherence is the best folder-dominance ratio among the note's
	// tags, 0 when no tag has statistics.
	coherence float64
}

// factor is one pure adjustment to the weight pair. Positive semantic
// deltas shift trust toward the vector neighborhood, positive llm deltas
// toward the language model. A factor that does not apply returns
// fired=false and contributes nothing.
type factor struct {
	name  string
	apply func(in factorInput) (semanticDelta, llmDelta float64, fired bool)
}

// factors is the ordered list folded over by Compute. Order only affects
// the reasoning trace; the deltas are additive.
var factors = []factor{
	{
		name: "high_urgency",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.UrgencySignals >= 3 {
				return in.tuning.CriticalDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "moderate_urgency",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.UrgencySignals > 0 && in.analysis.UrgencySignals < 3 {
				return in.tuning.MajorDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "deadline_proximity",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.NearestDate == nil {
				return 0, 0, false
			}
			days := in.analysis.NearestDate.Sub(in.now).Hours() / 24
			if days >= -7 && days <= 14 {
				return in.tuning.MajorDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "completed_status",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.HasCompletedStatus {
				return 0, in.tuning.CriticalDelta, true
			}
			return 0, 0, false
		},
	},
	{
		name: "tag_coherence",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.coherence >= in.tuning.CoherenceThreshold {
				return in.tuning.CriticalDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "no_neighbors",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.semantic.Category == models.CategoryUnknown {
				return 0, in.tuning.CriticalDelta, true
			}
			return 0, 0, false
		},
	},
	{
		name: "strong_neighborhood",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.semantic.Category != models.CategoryUnknown && in.semantic.Confidence >= 0.7 {
				return in.tuning.MajorDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "very_short_note",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.WordCount > 0 && in.analysis.WordCount < 50 {
				return 0, in.tuning.AuxiliaryDelta, true
			}
			return 0, 0, false
		},
	},
	{
		name: "very_long_note",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.WordCount > 2000 {
				return in.tuning.AuxiliaryDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "code_heavy",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.HasCode {
				return in.tuning.AuxiliaryDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "pending_task_load",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.PendingTasks > 2 {
				return in.tuning.AuxiliaryDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "all_tasks_done",
		apply: func(in factorInput) (float64, float64, bool) {
			if ratio := in.analysis.TaskRatio(); ratio == 1 {
				return 0, in.tuning.AuxiliaryDelta, true
			}
			return 0, 0, false
		},
	},
	{
		name: "archive_vocabulary",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.ArchiveSignals >= 2 {
				return 0, in.tuning.AuxiliaryDelta, true
			}
			return 0, 0, false
		},
	},
	{
		name: "active_status",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.HasActiveStatus {
				return in.tuning.MinorDelta, 0, true
			}
			return 0, 0, false
		},
	},
	{
		name: "link_density",
		apply: func(in factorInput) (float64, float64, bool) {
			if in.analysis.WordCount > 0 && float64(in.analysis.LinkCount)/float64(in.analysis.WordCount) > 0.05 {
				return in.tuning.MinorDelta, 0, true
			}
			return 0, 0, false
		},
	},
}

// Calculator computes the per-note weight pair for the two classifiers.
type Calculator struct {
	tuning    config.WeightTuning
	coherence CoherenceSource
	logger    *zap.Logger
}

// NewCalculator creates a weight calculator. coherence may be nil, in
// which case the tag coherence factor never fires.
func NewCalculator(tuning config.WeightTuning, coherence CoherenceSource, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		tuning:    tuning,
		coherence: coherence,
		logger:    logger,
	}
}

// Compute folds every factor over the base weights, clamps each side to
// the configured bounds, and renormalizes the pair to sum to 1.0. The
// returned trace names each factor that fired, in order.
func (c *Calculator) Compute(ctx context.Context, analysis *models.ContentAnalysis, semantic models.Verdict, now time.Time) (models.WeightVector, []string) {
	in := factorInput{
		analysis:  analysis,
		semantic:  semantic,
		tuning:    c.tuning,
		now:       now,
		coherence: c.bestCoherence(ctx, analysis.Tags),
	}

	semanticWeight := c.tuning.SemanticBase
	llmWeight := c.tuning.LLMBase
	var trace []string

	for _, f := range factors {
		sd, ld, fired := f.apply(in)
		if !fired {
			continue
		}
		semanticWeight += sd
		llmWeight += ld
		trace = append(trace, f.name)
	}

	semanticWeight = clamp(semanticWeight, c.tuning.ClampMin, c.tuning.ClampMax)
	llmWeight = clamp(llmWeight, c.tuning.ClampMin, c.tuning.ClampMax)

	total := semanticWeight + llmWeight
	vector := models.WeightVector{
		Semantic: semanticWeight / total,
		LLM:      llmWeight / total,
	}

	c.logger.Debug("dynamic_weights",
		zap.Float64("semantic", vector.Semantic),
		zap.Float64("llm", vector.LLM),
		zap.Strings("factors", trace),
	)

	return vector, trace
}

// bestCoherence returns the strongest folder-dominance ratio among the
// note's tags.
func (c *Calculator) bestCoherence(ctx context.Context, tags []string) float64 {
	if c.coherence == nil {
		return 0
	}
	best := 0.0
	for _, tag := range tags {
		if _, ratio, ok := c.coherence.TagDominance(ctx, tag); ok && ratio > best {
			best = ratio
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DescribeTrace renders a factor trace for a reasoning string.
func DescribeTrace(trace []string) string {
	if len(trace) == 0 {
		return "base weights"
	}
	return fmt.Sprintf("factors: %v", trace)
}
