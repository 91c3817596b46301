package worker

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/queue"
)

func (wp *WorkerPool) StartDLQRetryConsumer(ctx context.Context) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		log.Info().Msg("DLQ retry consumer started")
		ticker := time.NewTicker(wp.DLQConfig.RetryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("DLQ retry consumer stopping")
				return
			case <-ticker.C:
				wp.processDLQJobs(ctx)
			}
		}
	}()
}

func (wp *WorkerPool) processDLQJobs(ctx context.Context) {
	now := time.Now().UTC()

	var dlqJobs []entity.DLQJob
	err := wp.DB.WithContext(ctx).
		Where("status IN ?", []string{entity.DLQStatusPending, entity.DLQStatusFailed}).
		Where("retry_count < ?", wp.DLQConfig.MaxRetryCount).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("created_at asc").
		Limit(wp.DLQConfig.BatchSize).
		Find(&dlqJobs).Error
	if err != nil {
		log.Error().Err(err).Msg("Failed to query DLQ jobs")
		return
	}

	if len(dlqJobs) == 0 {
		log.Debug().Msg("No DLQ jobs to process")
		return
	}

	log.Info().Int("count", len(dlqJobs)).Msg("Processing DLQ jobs")

	for i := range dlqJobs {
		wp.retryDLQJob(ctx, &dlqJobs[i])
	}
}

func (wp *WorkerPool) retryDLQJob(ctx context.Context, dlqJob *entity.DLQJob) {
	err := wp.DB.WithContext(ctx).
		Model(&entity.DLQJob{}).
		Where("id = ?", dlqJob.ID).
		Update("status", entity.DLQStatusProcessing).Error
	if err != nil {
		log.Error().Err(err).Str("job_id", dlqJob.JobID).Msg("Failed to update DLQ job status")
		return
	}

	job := queue.Job{
		ID:      dlqJob.JobID,
		Type:    dlqJob.Type,
		Payload: dlqJob.Payload,
	}
	// defensive re-read in case the row carries a full job snapshot
	var snapshot queue.Job
	if jsonErr := json.Unmarshal(dlqJob.Payload, &snapshot); jsonErr == nil && snapshot.Type != "" {
		job = snapshot
	}

	// Fresh retry attempt
	job.Retry = 0
	job.ErrorMsg = ""

	if err := HandleJob(ctx, job); err != nil {
		wp.handleDLQRetryFailure(ctx, dlqJob, err.Error())
		return
	}

	now := time.Now().UTC()
	err = wp.DB.WithContext(ctx).
		Model(&entity.DLQJob{}).
		Where("id = ?", dlqJob.ID).
		Updates(map[string]any{
			"status":       entity.DLQStatusCompleted,
			"completed_at": now,
		}).Error
	if err != nil {
		log.Error().Err(err).Str("job_id", dlqJob.JobID).Msg("Failed to mark DLQ job as completed")
		return
	}

	log.Info().Str("job_id", dlqJob.JobID).Str("type", dlqJob.Type).Int("dlq_retry_count", dlqJob.RetryCount).Msg("DLQ job successfully retried")
}

func (wp *WorkerPool) handleDLQRetryFailure(ctx context.Context, dlqJob *entity.DLQJob, errorMsg string) {
	newRetryCount := dlqJob.RetryCount + 1
	now := time.Now().UTC()

	if newRetryCount >= wp.DLQConfig.MaxRetryCount {
		err := wp.DB.WithContext(ctx).
			Model(&entity.DLQJob{}).
			Where("id = ?", dlqJob.ID).
			Updates(map[string]any{
				"status":    entity.DLQStatusFailed,
				"error_msg": errorMsg,
				"failed_at": now,
			}).Error
		if err != nil {
			log.Error().Err(err).Str("job_id", dlqJob.JobID).Msg("Failed to mark DLQ job as permanently failed")
		}

		log.Error().Str("job_id", dlqJob.JobID).Str("type", dlqJob.Type).Int("dlq_retry_count", newRetryCount).Msg("DLQ job permanently failed after max retries")
		return
	}

	// exponential backoff on the retry interval
	backoffDuration := time.Duration(float64(wp.DLQConfig.RetryInterval) *
		math.Pow(2, float64(newRetryCount)))
	nextRetryAt := now.Add(backoffDuration)

	err := wp.DB.WithContext(ctx).
		Model(&entity.DLQJob{}).
		Where("id = ?", dlqJob.ID).
		Updates(map[string]any{
			"status":        entity.DLQStatusFailed,
			"retry_count":   newRetryCount,
			"error_msg":     errorMsg,
			"next_retry_at": nextRetryAt,
		}).Error
	if err != nil {
		log.Error().Err(err).Str("job_id", dlqJob.JobID).Msg("Failed to update DLQ job retry info")
		return
	}

	log.Warn().
		Str("job_id", dlqJob.JobID).
		Str("type", dlqJob.Type).
		Int("dlq_retry_count", newRetryCount).
		Time("next_retry_at", nextRetryAt).
		Msg("DLQ job scheduled for retry")
}
