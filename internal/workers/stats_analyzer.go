package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/analyzer"
	"github.com/parakeep/organizer/internal/database"
	logpkg "github.com/parakeep/organizer/internal/logger"
	"github.com/parakeep/organizer/internal/models"
	"github.com/parakeep/organizer/internal/queue"
	"github.com/parakeep/organizer/internal/vault"
)

// JobProcessor handles one job type.
type JobProcessor func(ctx context.Context, job *queue.Job) error

type processorEntry struct {
	proc JobProcessor
}

// StatsAnalyzer rebuilds a vault's tag statistics from a full scan. The
// resulting per-tag category distribution feeds the tag-coherence weight
// factor.
type StatsAnalyzer struct {
	vault     *vault.Vault
	analyzer  *analyzer.Analyzer
	statsRepo database.VaultStatisticsRepositoryInterface
	logger    *zap.Logger
	registry  map[queue.JobType]processorEntry
}

// NewStatsAnalyzer creates a new statistics analyzer and registers the
// analyze_statistics processor.
func NewStatsAnalyzer(
	v *vault.Vault,
	contentAnalyzer *analyzer.Analyzer,
	statsRepo database.VaultStatisticsRepositoryInterface,
	logger *zap.Logger,
) *StatsAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &StatsAnalyzer{
		vault:     v,
		analyzer:  contentAnalyzer,
		statsRepo: statsRepo,
		logger:    logger,
		registry:  make(map[queue.JobType]processorEntry),
	}
	a.RegisterProcessor(queue.JobTypeAnalyzeStatistics, a.ProcessAnalyzeStatisticsJob)
	return a
}

// RegisterProcessor registers a processor for a job type.
func (a *StatsAnalyzer) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	a.registry[typ] = processorEntry{proc: proc}
}

// ProcessAnalyzeStatisticsJob scans the vault and replaces the persisted
// tag statistics
func (a *StatsAnalyzer) ProcessAnalyzeStatisticsJob(ctx context.Context, job *queue.Job) error {
	if job.VaultRoot == "" {
		return fmt.Errorf("vault_root is required for statistics job")
	}

	a.logger.Info("processing_statistics_job",
		zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
		zap.String("vault_root", logpkg.SanitizePath(job.VaultRoot)),
	)

	stats, err := a.statsRepo.GetByVaultRootOrCreate(ctx, job.VaultRoot)
	if err != nil {
		return fmt.Errorf("failed to get or create vault statistics: %w", err)
	}
	a.logger.Debug("vault_statistics_status",
		zap.Bool("tainted", stats.Tainted),
		zap.Int("existing_tags", len(stats.TagStats)),
	)

	notes, err := a.vault.ScanNotes()
	if err != nil {
		return fmt.Errorf("failed to scan vault: %w", err)
	}

	tagStatsMap, notesWithTags := a.aggregateTagStats(notes)
	a.logger.Info("aggregated_tag_statistics",
		zap.Int("total_notes", len(notes)),
		zap.Int("notes_with_tags", notesWithTags),
		zap.Int("unique_tags", len(tagStatsMap)),
	)

	stats.TagStats = tagStatsMap
	now := time.Now()
	stats.LastAnalyzedAt = &now

	updated, err := a.statsRepo.UpdateStatistics(ctx, stats)
	if err != nil {
		return fmt.Errorf("failed to update vault statistics: %w", err)
	}
	if !updated {
		a.logger.Debug("vault_statistics_version_conflict",
			zap.String("vault_root", logpkg.SanitizePath(job.VaultRoot)),
		)
		return nil
	}

	a.logger.Info("successfully_analyzed_statistics",
		zap.String("vault_root", logpkg.SanitizePath(job.VaultRoot)),
		zap.Int("unique_tags", len(tagStatsMap)),
	)
	a.logTagBreakdownIfDebug(tagStatsMap)
	return nil
}

// aggregateTagStats builds the per-tag category distribution across the
// scanned notes. The category is the note's current top-level folder.
func (a *StatsAnalyzer) aggregateTagStats(notes []*models.Note) (map[string]models.FolderStats, int) {
	tagStatsMap := make(map[string]models.FolderStats)
	notesWithTags := 0

	for _, note := range notes {
		a.analyzer.ParseNote(note)
		if len(note.Tags) == 0 {
			continue
		}
		category := models.NormalizeCategory(note.CurrentFolder())
		if !category.IsTerminal() {
			// Inbox and loose notes carry no placement signal yet.
			continue
		}
		notesWithTags++
		for _, tag := range note.Tags {
			st := tagStatsMap[tag]
			if st.ByCategory == nil {
				st.ByCategory = make(map[string]int)
			}
			st.Total++
			st.ByCategory[string(category)]++
			tagStatsMap[tag] = st
		}
	}

	return tagStatsMap, notesWithTags
}

func (a *StatsAnalyzer) logTagBreakdownIfDebug(tagStatsMap map[string]models.FolderStats) {
	if len(tagStatsMap) == 0 || !a.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	tagList := make([]string, 0, len(tagStatsMap))
	for tag := range tagStatsMap {
		tagList = append(tagList, tag)
	}
	a.logger.Debug("tag_breakdown", zap.Strings("tags", tagList))
}

// ProcessJob processes a job based on its type using the processor registry.
func (a *StatsAnalyzer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		a.logger.Debug("statistics_job_not_ready", fields...)
		if ackErr := msg.Ack(); ackErr != nil {
			a.logger.Warn("failed_to_ack_job_for_later_processing",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	ent, ok := a.registry[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err := ent.proc(ctx, job); err != nil {
		a.logger.Error("statistics_job_failed",
			zap.String("operation", "process_job"),
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Warn("failed_to_nack_statistics_job",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("statistics analysis failed: %w", err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack statistics job: %w", ackErr)
	}
	return nil
}
