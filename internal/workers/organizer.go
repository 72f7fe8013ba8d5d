package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/parakeep/organizer/internal/logger"
	"github.com/parakeep/organizer/internal/pipeline"
	"github.com/parakeep/organizer/internal/queue"
	"github.com/parakeep/organizer/internal/services/ai"
)

// Pipeline is the part of the classification engine the worker drives.
type Pipeline interface {
	Organize(ctx context.Context, notePath string) (*pipeline.Result, error)
	OrganizeVault(ctx context.Context) (*pipeline.Summary, error)
}

// NoteOrganizer processes classify and organize jobs
type NoteOrganizer struct {
	engine   Pipeline
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewNoteOrganizer creates a new note organizer worker
func NewNoteOrganizer(engine Pipeline, jobQueue queue.JobQueue, logger *zap.Logger) *NoteOrganizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteOrganizer{
		engine:   engine,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// ProcessClassifyNoteJob classifies and files a single note
func (o *NoteOrganizer) ProcessClassifyNoteJob(ctx context.Context, job *queue.Job) error {
	if job.NotePath == "" {
		return fmt.Errorf("note_path is required for classify job")
	}

	ctx = context.WithValue(ctx, ai.JobIDContextKey(), job.ID.String())
	result, err := o.engine.Organize(ctx, job.NotePath)
	if err != nil {
		return fmt.Errorf("failed to organize note: %w", err)
	}

	o.logger.Info("note_organized",
		zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
		zap.String("note_path", logpkg.SanitizePath(result.NotePath)),
		zap.String("category", string(result.Decision.Category)),
		zap.String("method", string(result.Decision.Method)),
		zap.Bool("moved", result.Moved),
	)
	return nil
}

// ProcessOrganizeVaultJob runs the pipeline over the whole vault
func (o *NoteOrganizer) ProcessOrganizeVaultJob(ctx context.Context, job *queue.Job) error {
	ctx = context.WithValue(ctx, ai.JobIDContextKey(), job.ID.String())
	summary, err := o.engine.OrganizeVault(ctx)
	if summary != nil {
		o.logger.Info("vault_organize_pass",
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.Int("processed", summary.Processed),
			zap.Int("moved", summary.Moved),
			zap.Int("preserved", summary.Preserved),
			zap.Int("failed", summary.Failed),
		)
	}
	if err != nil {
		return fmt.Errorf("vault organize pass aborted: %w", err)
	}
	return nil
}

// ProcessJob processes a job based on its type
func (o *NoteOrganizer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Respect NotBefore: ack and let the delayed re-enqueue bring it back.
	if !job.ShouldProcess() {
		fields := []zap.Field{zap.String("job_id", logpkg.SanitizeID(job.ID.String()))}
		if job.NotBefore != nil {
			fields = append(fields, zap.Time("not_before", *job.NotBefore))
		}
		o.logger.Debug("organize_job_not_ready", fields...)
		if ackErr := msg.Ack(); ackErr != nil {
			o.logger.Warn("failed_to_ack_job_for_later_processing",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(ackErr)),
			)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeClassifyNote:
		if err := o.ProcessClassifyNoteJob(ctx, job); err != nil {
			return o.handleJobError(ctx, msg, job, err, "classify")
		}
	case queue.JobTypeOrganizeVault:
		if err := o.ProcessOrganizeVaultJob(ctx, job); err != nil {
			return o.handleJobError(ctx, msg, job, err, "organize vault")
		}
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			o.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError handles errors from job processing with intelligent retry logic
func (o *NoteOrganizer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobType string) error {
	// Quota exhaustion: long delay before the next attempt.
	if ai.IsQuotaError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		o.logger.Warn("quota_exceeded",
			zap.String("job_type", jobType),
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.Time("retry_at", notBefore),
			zap.String("error", logpkg.SanitizeError(err)),
		)

		if reErr := o.reEnqueueDelayed(ctx, msg, job, notBefore); reErr != nil {
			return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", reErr)
		}
		return nil
	}

	// Rate limiting: shorter backoff, bounded by the job's retry budget.
	if ai.IsRateLimitError(err) {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		o.logger.Warn("rate_limited",
			zap.String("job_type", jobType),
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.Duration("retry_delay", retryDelay),
			zap.String("error", logpkg.SanitizeError(err)),
		)

		if job.CanRetry() && o.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			if reErr := o.reEnqueueDelayed(ctx, msg, job, notBefore); reErr != nil {
				// Fall back to nack with requeue
				if nackErr := msg.Nack(true); nackErr != nil {
					o.logger.Warn("failed_to_nack_rate_limited_job",
						zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
						zap.String("error", logpkg.SanitizeError(nackErr)),
					)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", reErr)
			}
			return nil
		}

		if job.CanRetry() {
			job.IncrementRetry()
			if nackErr := msg.Nack(true); nackErr != nil {
				o.logger.Warn("failed_to_nack_rate_limited_job",
					zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
					zap.String("error", logpkg.SanitizeError(nackErr)),
				)
			}
			return fmt.Errorf("rate limited (will retry): %w", err)
		}
	}

	// Other errors: standard retry until the budget runs out.
	if job.CanRetry() {
		job.IncrementRetry()
		o.logger.Warn("organize_job_failed_will_retry",
			zap.String("job_type", jobType),
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			o.logger.Warn("failed_to_nack_job",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	o.logger.Error("organize_job_failed_to_dlq",
		zap.String("job_type", jobType),
		zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
		zap.Int("max_retries", job.MaxRetries),
		zap.String("error", logpkg.SanitizeError(err)),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		o.logger.Warn("failed_to_nack_job_to_dlq",
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(nackErr)),
		)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// reEnqueueDelayed acks the current delivery and publishes a copy of the
// job carrying NotBefore so the delayed exchange holds it back.
func (o *NoteOrganizer) reEnqueueDelayed(ctx context.Context, msg queue.MessageInterface, job *queue.Job, notBefore time.Time) error {
	if o.jobQueue == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			o.logger.Warn("failed_to_nack_without_queue_access",
				zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("no queue access for delayed re-enqueue")
	}

	delayedJob := &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		VaultRoot:  job.VaultRoot,
		NotePath:   job.NotePath,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}

	if ackErr := msg.Ack(); ackErr != nil {
		o.logger.Warn("failed_to_ack_before_re_enqueue",
			zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
			zap.String("error", logpkg.SanitizeError(ackErr)),
		)
	}

	if err := o.jobQueue.Enqueue(ctx, delayedJob); err != nil {
		return err
	}

	o.logger.Info("job_re_enqueued_with_delay",
		zap.String("job_id", logpkg.SanitizeID(job.ID.String())),
		zap.Time("not_before", notBefore),
	)
	return nil
}
