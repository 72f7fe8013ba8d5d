package database

import (
	"context"
	"sync"
	"time"

	"github.com/parakeep/organizer/internal/models"
)

// coherenceTTL bounds how long a cached statistics snapshot is trusted
// before it is re-read from the database.
const coherenceTTL = 5 * time.Minute

// StatisticsCoherence answers tag dominance questions from the persisted
// vault statistics, refreshing its snapshot lazily. Lookups never fail
// the caller: a missing or stale row just reports no dominance.
type StatisticsCoherence struct {
	repo      VaultStatisticsRepositoryInterface
	vaultRoot string

	mu        sync.Mutex
	snapshot  *models.VaultStatistics
	fetchedAt time.Time
}

// NewStatisticsCoherence creates a coherence source over one vault's
// statistics row.
func NewStatisticsCoherence(repo VaultStatisticsRepositoryInterface, vaultRoot string) *StatisticsCoherence {
	return &StatisticsCoherence{repo: repo, vaultRoot: vaultRoot}
}

// TagDominance reports the category holding the largest share of a tag's
// notes and that share. ok is false when the tag is unknown, the vault
// has never been analyzed, or the statistics are marked tainted.
func (c *StatisticsCoherence) TagDominance(ctx context.Context, tag string) (models.Category, float64, bool) {
	stats := c.current(ctx)
	if stats == nil || stats.Tainted {
		return models.CategoryUnknown, 0, false
	}

	tagStats, ok := stats.TagStats[tag]
	if !ok || tagStats.Total == 0 {
		return models.CategoryUnknown, 0, false
	}

	category, ratio := tagStats.DominantCategory()
	return category, ratio, true
}

func (c *StatisticsCoherence) current(ctx context.Context) *models.VaultStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && time.Since(c.fetchedAt) < coherenceTTL {
		return c.snapshot
	}

	stats, err := c.repo.GetByVaultRoot(ctx, c.vaultRoot)
	if err != nil {
		// Keep serving the old snapshot if there is one.
		return c.snapshot
	}

	c.snapshot = stats
	c.fetchedAt = time.Now()
	return c.snapshot
}

// Invalidate drops the cached snapshot so the next lookup re-reads.
func (c *StatisticsCoherence) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}
