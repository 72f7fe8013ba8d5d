package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSearchTimeout bounds a single vector query.
	DefaultSearchTimeout = 10 * time.Second
)

// ChromaSearcher queries a Chroma vector store over its REST API. The
// collection holds one embedding per classified note with the note's
// category and folder in the metadata.
type ChromaSearcher struct {
	baseURL    string
	collection string
	client     *http.Client
	logger     *zap.Logger

	collectionID string
}

// NewChromaSearcher creates a searcher against the given Chroma base URL
// and collection name.
func NewChromaSearcher(baseURL, collection string, logger *zap.Logger) *ChromaSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromaSearcher{
		baseURL:    baseURL,
		collection: collection,
		client:     &http.Client{Timeout: DefaultSearchTimeout},
		logger:     logger,
	}
}

// Search returns the nearest classified notes for the text.
func (s *ChromaSearcher) Search(ctx context.Context, text string, limit int) ([]Neighbor, error) {
	if limit <= 0 {
		limit = 10
	}

	id, err := s.resolveCollection(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"query_texts": []string{text},
		"n_results":   limit,
		"include":     []string{"metadatas", "distances"},
	}

	var result struct {
		IDs       [][]string           `json:"ids"`
		Distances [][]float64          `json:"distances"`
		Metadatas [][]map[string]any   `json:"metadatas"`
	}
	url := fmt.Sprintf("%s/api/v1/collections/%s/query", s.baseURL, id)
	if err := s.post(ctx, url, reqBody, &result); err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	if len(result.IDs) == 0 {
		return nil, nil
	}

	neighbors := make([]Neighbor, 0, len(result.IDs[0]))
	for i := range result.IDs[0] {
		n := Neighbor{Path: result.IDs[0][i]}
		if len(result.Distances) > 0 && i < len(result.Distances[0]) {
			n.Distance = result.Distances[0][i]
		}
		if len(result.Metadatas) > 0 && i < len(result.Metadatas[0]) {
			meta := result.Metadatas[0][i]
			if v, ok := meta["category"].(string); ok {
				n.Category = v
			}
			if v, ok := meta["folder_name"].(string); ok {
				n.FolderName = v
			}
		}
		neighbors = append(neighbors, n)
	}

	s.logger.Debug("vector_search",
		zap.Int("limit", limit),
		zap.Int("neighbors", len(neighbors)),
	)

	return neighbors, nil
}

// resolveCollection looks up the collection ID by name, caching it for the
// lifetime of the searcher. Chroma collection IDs are stable.
func (s *ChromaSearcher) resolveCollection(ctx context.Context) (string, error) {
	if s.collectionID != "" {
		return s.collectionID, nil
	}

	var result struct {
		ID string `json:"id"`
	}
	url := fmt.Sprintf("%s/api/v1/collections/%s", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolving collection %q: %w", s.collection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("resolving collection %q: status %d: %s", s.collection, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	s.collectionID = result.ID
	return s.collectionID, nil
}

func (s *ChromaSearcher) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
