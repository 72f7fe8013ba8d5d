package dedupe

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Merge is one planned consolidation: every source folder's notes move
// into the target, which is always the most-populated folder of the group.
type Merge struct {
	Target  string   `json:"target"`
	Sources []string `json:"sources"`
	Reason  string   `json:"reason"`
}

// Resolver plans folder consolidations inside one category tree.
type Resolver struct {
	similarityThreshold float64
	logger              *zap.Logger
}

// NewResolver creates a resolver. Folders whose token similarity meets
// the threshold are treated as thematic duplicates.
func NewResolver(similarityThreshold float64, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		similarityThreshold: similarityThreshold,
		logger:              logger,
	}
}

// Plan groups the folders of one category into consolidation merges.
// folders maps folder name to its note count. Two folders belong together
// when they share a base name after suffix stripping, or when their token
// similarity reaches the threshold. Folders that merely share a prefix
// ("Project Alpha" vs "Project Beta") stay apart.
func (r *Resolver) Plan(folders map[string]int) []Merge {
	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)

	// Union by cleaned base name first, then by similarity. Group keys
	// are checked in sorted order so grouping is deterministic.
	groups := make(map[string][]string)
	var keys []string
	for _, name := range names {
		base := normalizeForComparison(DetectSuffix(name).BaseName)
		key := base
		for _, existing := range keys {
			if existing == base || TokenSimilarity(existing, base) >= r.similarityThreshold {
				key = existing
				break
			}
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], name)
	}

	var merges []Merge
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		target := mostPopulated(members, folders)
		sources := make([]string, 0, len(members)-1)
		for _, m := range members {
			if m != target {
				sources = append(sources, m)
			}
		}
		sort.Strings(sources)

		merge := Merge{
			Target:  target,
			Sources: sources,
			Reason:  fmt.Sprintf("thematic duplicates of %q", DetectSuffix(target).BaseName),
		}
		merges = append(merges, merge)

		r.logger.Debug("consolidation_planned",
			zap.String("target", merge.Target),
			zap.Strings("sources", merge.Sources),
		)
	}

	sort.Slice(merges, func(i, j int) bool { return merges[i].Target < merges[j].Target })
	return merges
}

// ResolveFileCollision picks a name for a file moving into a folder that
// already has one by that name. Files get a numeric suffix starting at 2;
// folders never do.
func ResolveFileCollision(stem, ext string, exists func(string) bool) string {
	candidate := stem + ext
	for counter := 2; exists(candidate); counter++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}
	return candidate
}

// TokenSimilarity is the Jaccard similarity of the two names' word sets,
// case-insensitive.
func TokenSimilarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}

	common := 0
	for _, w := range wordsA {
		if setB[w] {
			common++
		}
	}

	union := len(wordsA) + len(wordsB) - common
	if union == 0 {
		return 0.0
	}

	return float64(common) / float64(union)
}

// normalizeForComparison lowercases and collapses separators so
// "Team_Sync" and "team sync" compare equal.
func normalizeForComparison(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

func mostPopulated(members []string, counts map[string]int) string {
	best := members[0]
	for _, m := range members[1:] {
		if counts[m] > counts[best] || (counts[m] == counts[best] && m < best) {
			best = m
		}
	}
	return best
}
