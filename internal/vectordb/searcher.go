package vectordb

import (
	"context"
)

// Neighbor is one previously classified note returned by a vector search.
// Distance is a cosine distance in [0, 2]; smaller is closer.
type Neighbor struct {
	Path       string  `json:"path"`
	Category   string  `json:"category"`
	FolderName string  `json:"folder_name"`
	Distance   float64 `json:"distance"`
}

// Similarity converts the neighbor's distance to a score in [0, 1].
func (n Neighbor) Similarity() float64 {
	s := 1 - n.Distance
	if s < 0 {
		return 0
	}
	return s
}

// NeighborSearcher finds the nearest classified notes for a piece of text.
type NeighborSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]Neighbor, error)
}
