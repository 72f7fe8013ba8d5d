package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parakeep/organizer/internal/queue"
)

// Scheduler enqueues the recurring statistics analysis jobs for a vault
type Scheduler struct {
	jobQueue  queue.JobQueue
	vaultRoot string
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(jobQueue queue.JobQueue, vaultRoot string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobQueue:  jobQueue,
		vaultRoot: vaultRoot,
		logger:    logger,
	}
}

// ScheduleStatisticsJobs creates statistics analysis jobs at the next two
// daily slots (08:00 and 20:00 local time)
func (s *Scheduler) ScheduleStatisticsJobs(ctx context.Context) error {
	now := time.Now()
	nextMorning := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	nextEvening := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())

	if now.After(nextMorning) {
		nextMorning = nextMorning.Add(24 * time.Hour)
	}
	if now.After(nextEvening) {
		nextEvening = nextEvening.Add(24 * time.Hour)
	}

	for _, slot := range []time.Time{nextMorning, nextEvening} {
		if err := s.createStatisticsJob(ctx, slot); err != nil {
			s.logger.Warn("failed_to_schedule_statistics_job",
				zap.Time("slot", slot),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("scheduled_statistics_jobs",
		zap.Time("next_morning", nextMorning),
		zap.Time("next_evening", nextEvening),
	)
	return nil
}

// createStatisticsJob creates one statistics job held until notBefore.
// Stale copies expire a day after their slot so the DLQ GC can drop them.
func (s *Scheduler) createStatisticsJob(ctx context.Context, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeAnalyzeStatistics, s.vaultRoot, "")
	job.NotBefore = &notBefore
	notAfter := notBefore.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue statistics job: %w", err)
	}
	return nil
}
