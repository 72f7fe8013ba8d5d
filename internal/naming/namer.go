package naming

import (
	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/dedupe"
	"github.com/parakeep/organizer/internal/models"
)

// Namer picks the folder a note lands in: an intelligent name when the
// content supports one, the note's own title otherwise, and always an
// existing folder over a freshly minted near-duplicate.
type Namer struct {
	maxLen   int
	resolver *dedupe.Resolver
	logger   *zap.Logger
}

// NewNamer creates a folder namer. maxLen bounds generated names;
// resolver decides which existing folders count as thematic duplicates.
func NewNamer(maxLen int, resolver *dedupe.Resolver, logger *zap.Logger) *Namer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Namer{
		maxLen:   maxLen,
		resolver: resolver,
		logger:   logger,
	}
}

// Name produces the folder name for a note. suggested is the folder the
// decision carried (from the LLM or the neighborhood); it is preferred
// when present, otherwise the namer derives one from the note itself.
func (n *Namer) Name(note *models.Note, category models.Category, suggested string) string {
	name := TruncateWholeWords(cleanTitle(suggested), n.maxLen)
	if name == "" {
		name = IntelligentName(note, category, n.maxLen)
	}
	if name == "" {
		name = TraditionalName(note, n.maxLen)
	}
	return name
}

// EnsureUnique reconciles a proposed name against the folders already in
// the category. When the proposal collides with a thematic duplicate
// group, the most-populated existing folder wins; a new numeric-suffix
// folder is never created. existing maps folder name to note count.
func (n *Namer) EnsureUnique(proposed string, existing map[string]int) string {
	if len(existing) == 0 {
		return proposed
	}

	// Exact match: the folder already exists, reuse it.
	if _, ok := existing[proposed]; ok {
		return proposed
	}

	withProposal := make(map[string]int, len(existing)+1)
	for name, count := range existing {
		withProposal[name] = count
	}
	withProposal[proposed] = 0

	for _, merge := range n.resolver.Plan(withProposal) {
		for _, source := range merge.Sources {
			if source == proposed {
				n.logger.Debug("folder_consolidated",
					zap.String("proposed", proposed),
					zap.String("target", merge.Target),
				)
				return merge.Target
			}
		}
		if merge.Target == proposed {
			// The proposal is the natural target of an existing
			// duplicate group; keep it.
			return proposed
		}
	}

	return proposed
}
