package vectordb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultCacheTTL is how long cached neighbor sets stay valid.
	DefaultCacheTTL = 15 * time.Minute

	cacheKeyPrefix = "organizer:neighbors:"
)

// CachedSearcher wraps a NeighborSearcher with a Redis result cache keyed
// on a hash of the query text. Cache failures fall through to the inner
// searcher; they are never surfaced.
type CachedSearcher struct {
	inner  NeighborSearcher
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSearcher creates a caching wrapper around a searcher.
func NewCachedSearcher(inner NeighborSearcher, client *redis.Client, logger *zap.Logger) *CachedSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearcher{
		inner:  inner,
		client: client,
		ttl:    DefaultCacheTTL,
		logger: logger,
	}
}

// Search returns cached neighbors when available, otherwise queries the
// inner searcher and stores the result.
func (s *CachedSearcher) Search(ctx context.Context, text string, limit int) ([]Neighbor, error) {
	key := s.cacheKey(text, limit)

	if cached, err := s.client.Get(ctx, key).Result(); err == nil {
		var neighbors []Neighbor
		if json.Unmarshal([]byte(cached), &neighbors) == nil {
			s.logger.Debug("neighbor_cache_hit", zap.String("key", key))
			return neighbors, nil
		}
	} else if err != redis.Nil {
		s.logger.Debug("neighbor_cache_error", zap.Error(err))
	}

	neighbors, err := s.inner.Search(ctx, text, limit)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(neighbors); err == nil {
		if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
			s.logger.Debug("neighbor_cache_store_error", zap.Error(err))
		}
	}

	return neighbors, nil
}

func (s *CachedSearcher) cacheKey(text string, limit int) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%s:%d", cacheKeyPrefix, hex.EncodeToString(sum[:16]), limit)
}
