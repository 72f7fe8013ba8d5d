package vectordb

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/models"
)

const (
	// DefaultNeighborLimit is how many classified notes a suggestion
	// considers.
	DefaultNeighborLimit = 10
)

// Suggester produces a category verdict from the vector neighborhood of a
// note. It degrades instead of failing: any infrastructure error yields
// the zero-neighbor verdict (Unknown, confidence 0) and a log line.
type Suggester struct {
	searcher NeighborSearcher
	limit    int
	logger   *zap.Logger
}

// NewSuggester creates a semantic suggester over a neighbor searcher.
func NewSuggester(searcher NeighborSearcher, logger *zap.Logger) *Suggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suggester{
		searcher: searcher,
		limit:    DefaultNeighborLimit,
		logger:   logger,
	}
}

// Suggest classifies a note by inverse-distance weighted majority vote
// over its nearest classified neighbors.
func (s *Suggester) Suggest(ctx context.Context, notePath, text string) models.Verdict {
	neighbors, err := s.searcher.Search(ctx, text, s.limit)
	if err != nil {
		s.logger.Warn("semantic_search_degraded",
			zap.String("note_path", notePath),
			zap.Error(err),
		)
		return unknownVerdict("vector search unavailable")
	}

	if len(neighbors) == 0 {
		return unknownVerdict("no classified neighbors")
	}

	scores := make(map[models.Category]float64)
	folders := make(map[models.Category]map[string]float64)
	for _, n := range neighbors {
		category := models.NormalizeCategory(n.Category)
		if category == models.CategoryUnknown {
			continue
		}
		sim := n.Similarity()
		scores[category] += sim
		if n.FolderName != "" {
			if folders[category] == nil {
				folders[category] = make(map[string]float64)
			}
			folders[category][n.FolderName] += sim
		}
	}

	if len(scores) == 0 {
		return unknownVerdict("neighbors carry no categories")
	}

	top, runnerUp := rankScores(scores)

	confidence := top.score*0.6 +
		minFloat(2*(top.score-runnerUp), 0.3) +
		minFloat(float64(len(neighbors))/20, 0.1)
	if confidence > 1 {
		confidence = 1
	}

	verdict := models.Verdict{
		Category:   top.category,
		FolderName: dominantFolder(folders[top.category]),
		Confidence: confidence,
		Reasoning: fmt.Sprintf("%d neighbors, %s leads with weighted score %.2f",
			len(neighbors), top.category, top.score),
	}

	s.logger.Debug("semantic_suggestion",
		zap.String("note_path", notePath),
		zap.String("category", string(verdict.Category)),
		zap.Float64("confidence", verdict.Confidence),
		zap.Int("neighbors", len(neighbors)),
	)

	return verdict
}

type rankedScore struct {
	category models.Category
	score    float64
}

// rankScores normalizes the vote weights to [0, 1] shares and returns the
// leading category with the runner-up's share.
func rankScores(scores map[models.Category]float64) (rankedScore, float64) {
	total := 0.0
	for _, s := range scores {
		total += s
	}

	ranked := make([]rankedScore, 0, len(scores))
	for c, s := range scores {
		share := 0.0
		if total > 0 {
			share = s / total
		}
		ranked = append(ranked, rankedScore{category: c, score: share})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].category < ranked[j].category
	})

	runnerUp := 0.0
	if len(ranked) > 1 {
		runnerUp = ranked[1].score
	}
	return ranked[0], runnerUp
}

func dominantFolder(weights map[string]float64) string {
	best := ""
	bestWeight := 0.0
	for folder, weight := range weights {
		if weight > bestWeight || (weight == bestWeight && folder < best) {
			best = folder
			bestWeight = weight
		}
	}
	return best
}

func unknownVerdict(reason string) models.Verdict {
	return models.Verdict{
		Category:   models.CategoryUnknown,
		Confidence: 0,
		Reasoning:  reason,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
