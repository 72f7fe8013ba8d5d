package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parakeep/organizer/internal/models"
)

// VaultStatisticsRepository handles vault tag statistics database operations
type VaultStatisticsRepository struct {
	db *DB
}

// NewVaultStatisticsRepository creates a new vault statistics repository
func NewVaultStatisticsRepository(db *DB) *VaultStatisticsRepository {
	return &VaultStatisticsRepository{db: db}
}

// GetByVaultRoot retrieves tag statistics for one vault
func (r *VaultStatisticsRepository) GetByVaultRoot(ctx context.Context, vaultRoot string) (*models.VaultStatistics, error) {
	stats := &models.VaultStatistics{}
	var tagStatsJSON []byte
	var lastAnalyzedAt sql.NullTime

	query := `
		SELECT vault_root, tag_stats, tainted, last_analyzed_at, analysis_version, created_at, updated_at
		FROM vault_statistics
		WHERE vault_root = $1
	`

	err := r.db.QueryRowContext(ctx, query, vaultRoot).Scan(
		&stats.VaultRoot,
		&tagStatsJSON,
		&stats.Tainted,
		&lastAnalyzedAt,
		&stats.AnalysisVersion,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("vault statistics not found for %s", vaultRoot)
		}
		return nil, fmt.Errorf("failed to get vault statistics: %w", err)
	}

	if len(tagStatsJSON) > 0 {
		if err := json.Unmarshal(tagStatsJSON, &stats.TagStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tag_stats: %w", err)
		}
	} else {
		stats.TagStats = make(map[string]models.FolderStats)
	}

	if lastAnalyzedAt.Valid {
		stats.LastAnalyzedAt = &lastAnalyzedAt.Time
	}

	return stats, nil
}

// GetByVaultRootOrCreate retrieves vault statistics or creates a tainted
// empty record when none exists yet
func (r *VaultStatisticsRepository) GetByVaultRootOrCreate(ctx context.Context, vaultRoot string) (*models.VaultStatistics, error) {
	stats, err := r.GetByVaultRoot(ctx, vaultRoot)
	if err == nil {
		return stats, nil
	}

	stats = &models.VaultStatistics{
		VaultRoot:       vaultRoot,
		TagStats:        make(map[string]models.FolderStats),
		Tainted:         true,
		AnalysisVersion: 0,
	}

	// Upsert covers the race where another process creates the row
	// between the read above and this write.
	if err := r.Upsert(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to create vault statistics: %w", err)
	}

	return r.GetByVaultRoot(ctx, vaultRoot)
}

// UpdateStatistics atomically replaces the statistics with a version check.
// Returns true if the update succeeded, false on a version conflict.
func (r *VaultStatisticsRepository) UpdateStatistics(ctx context.Context, stats *models.VaultStatistics) (bool, error) {
	query := `
		UPDATE vault_statistics
		SET tag_stats = $1, tainted = false, last_analyzed_at = $2, analysis_version = analysis_version + 1, updated_at = $3
		WHERE vault_root = $4 AND analysis_version = $5
		RETURNING analysis_version, created_at, updated_at
	`

	tagStatsJSON, err := json.Marshal(stats.TagStats)
	if err != nil {
		return false, fmt.Errorf("failed to marshal tag_stats: %w", err)
	}

	now := time.Now()
	var lastAnalyzedAt sql.NullTime
	if stats.LastAnalyzedAt != nil {
		lastAnalyzedAt = sql.NullTime{Time: *stats.LastAnalyzedAt, Valid: true}
	} else {
		lastAnalyzedAt = sql.NullTime{Time: now, Valid: true}
	}

	var newVersion int
	err = r.db.QueryRowContext(ctx, query,
		tagStatsJSON,
		lastAnalyzedAt,
		now,
		stats.VaultRoot,
		stats.AnalysisVersion,
	).Scan(&newVersion, &stats.CreatedAt, &stats.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			// Another analysis run got there first.
			return false, nil
		}
		return false, fmt.Errorf("failed to update vault statistics: %w", err)
	}

	stats.AnalysisVersion = newVersion
	stats.Tainted = false
	if lastAnalyzedAt.Valid {
		stats.LastAnalyzedAt = &lastAnalyzedAt.Time
	}

	return true, nil
}

// MarkTainted atomically marks a vault's statistics as stale. Returns
// true when the transition happened, false when already tainted.
func (r *VaultStatisticsRepository) MarkTainted(ctx context.Context, vaultRoot string) (bool, error) {
	query := `
		UPDATE vault_statistics
		SET tainted = true, updated_at = $1
		WHERE vault_root = $2 AND tainted = false
		RETURNING vault_root
	`

	var resultRoot string
	err := r.db.QueryRowContext(ctx, query, time.Now(), vaultRoot).Scan(&resultRoot)

	if err != nil {
		if err == sql.ErrNoRows {
			// Already tainted or missing. Upsert to guarantee the row exists.
			upsertQuery := `
				INSERT INTO vault_statistics (vault_root, tag_stats, tainted, analysis_version, created_at, updated_at)
				VALUES ($1, '{}', true, 0, $2, $2)
				ON CONFLICT (vault_root) DO UPDATE
				SET tainted = true, updated_at = $2
				WHERE vault_statistics.tainted = false
				RETURNING vault_root
			`
			err = r.db.QueryRowContext(ctx, upsertQuery, vaultRoot, time.Now()).Scan(&resultRoot)
			if err != nil {
				if err == sql.ErrNoRows {
					return false, nil
				}
				return false, fmt.Errorf("failed to mark tainted: %w", err)
			}
			return true, nil
		}
		return false, fmt.Errorf("failed to mark tainted: %w", err)
	}

	return true, nil
}

// Upsert creates or replaces vault statistics
func (r *VaultStatisticsRepository) Upsert(ctx context.Context, stats *models.VaultStatistics) error {
	query := `
		INSERT INTO vault_statistics (vault_root, tag_stats, tainted, last_analyzed_at, analysis_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vault_root) DO UPDATE
		SET tag_stats = EXCLUDED.tag_stats,
		    tainted = EXCLUDED.tainted,
		    last_analyzed_at = EXCLUDED.last_analyzed_at,
		    analysis_version = EXCLUDED.analysis_version,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	tagStatsJSON, err := json.Marshal(stats.TagStats)
	if err != nil {
		return fmt.Errorf("failed to marshal tag_stats: %w", err)
	}

	var lastAnalyzedAt sql.NullTime
	if stats.LastAnalyzedAt != nil {
		lastAnalyzedAt = sql.NullTime{Time: *stats.LastAnalyzedAt, Valid: true}
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		stats.VaultRoot,
		tagStatsJSON,
		stats.Tainted,
		lastAnalyzedAt,
		stats.AnalysisVersion,
		now,
		now,
	).Scan(&stats.CreatedAt, &stats.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert vault statistics: %w", err)
	}

	return nil
}
