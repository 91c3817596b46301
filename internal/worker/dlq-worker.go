package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/queue"
)

// StartDLQWorker drains the redis dead-letter list into the dlq_jobs table so
// failed alerts survive restarts and can be retried on a schedule.
func (wp *WorkerPool) StartDLQWorker(ctx context.Context) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		log.Info().Msg("DLQ worker started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("DLQ worker stopping")
				return
			default:
				result, err := wp.Redis.BLPop(ctx, 10*time.Second, dlqKey).Result()
				if err == redis.Nil {
					continue
				} else if err != nil {
					log.Error().Err(err).Msg("DLQWorker pop failed")
					continue
				}

				payload := result[1]
				var job queue.Job
				if err := json.Unmarshal([]byte(payload), &job); err != nil {
					log.Warn().Err(err).Msg("DLQWorker invalid job payload")
					continue
				}

				log.Error().
					Str("job_id", job.ID).
					Str("type", job.Type).
					Str("error", job.ErrorMsg).
					Msg("DLQ Job detected")

				dlqRow := entity.DLQJob{
					JobID:              job.ID,
					Type:               job.Type,
					Payload:            job.Payload,
					Status:             entity.DLQStatusPending,
					RetryCount:         0,
					OriginalRetryCount: job.Retry,
					ErrorMsg:           job.ErrorMsg,
					ExpireAt:           time.Now().Add(7 * 24 * time.Hour).UTC(), // TTL 7 days
				}

				if err := wp.DB.WithContext(ctx).Create(&dlqRow).Error; err != nil {
					log.Error().Err(err).Msg("Failed to persist DLQ job")

					// fallback: put back to the redis DLQ
					wp.Redis.RPush(ctx, dlqKey, payload)
				} else {
					log.Info().Str("job_id", job.ID).Msg("DLQ job persisted")
				}
			}
		}
	}()
}

// GetDLQStats groups the audit table by status for the ops dashboard.
func (wp *WorkerPool) GetDLQStats(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	err := wp.DB.WithContext(ctx).
		Model(&entity.DLQJob{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.Status] = r.Count
	}

	return stats, nil
}
