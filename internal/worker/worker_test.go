package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/queue"
)

func setupPool(t *testing.T) (*WorkerPool, *redis.Client) {
	t.Helper()

	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.DLQJob{}))

	return NewWorkerPool(rdb, db, 1), rdb
}

func TestHandleJob_UnknownType(t *testing.T) {
	err := HandleJob(context.Background(), queue.Job{ID: "x", Type: "mystery"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
}

func TestGetDLQStats_GroupsByStatus(t *testing.T) {
	pool, _ := setupPool(t)
	ctx := context.Background()

	rows := []entity.DLQJob{
		{JobID: "a", Type: queue.JobNotifyNewChat, Status: entity.DLQStatusPending, ExpireAt: time.Now().Add(time.Hour)},
		{JobID: "b", Type: queue.JobNotifyNewChat, Status: entity.DLQStatusPending, ExpireAt: time.Now().Add(time.Hour)},
		{JobID: "c", Type: queue.JobNotifyNewChat, Status: entity.DLQStatusCompleted, ExpireAt: time.Now().Add(time.Hour)},
	}
	for i := range rows {
		require.NoError(t, pool.DB.Create(&rows[i]).Error)
	}

	stats, err := pool.GetDLQStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[entity.DLQStatusPending])
	assert.Equal(t, int64(1), stats[entity.DLQStatusCompleted])
}

func TestHandleDLQRetryFailure_SchedulesBackoffThenGivesUp(t *testing.T) {
	pool, _ := setupPool(t)
	ctx := context.Background()

	row := entity.DLQJob{
		JobID:    "job-1",
		Type:     queue.JobNotifyNewChat,
		Status:   entity.DLQStatusPending,
		ExpireAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, pool.DB.Create(&row).Error)

	pool.handleDLQRetryFailure(ctx, &row, "smtp down")

	var updated entity.DLQJob
	require.NoError(t, pool.DB.First(&updated, "job_id = ?", "job-1").Error)
	assert.Equal(t, entity.DLQStatusFailed, updated.Status)
	assert.Equal(t, 1, updated.RetryCount)
	require.NotNil(t, updated.NextRetryAt)
	assert.True(t, updated.NextRetryAt.After(time.Now()), "backoff pushes the next attempt into the future")

	// exhaust the budget
	updated.RetryCount = pool.DLQConfig.MaxRetryCount - 1
	pool.handleDLQRetryFailure(ctx, &updated, "smtp still down")

	var final entity.DLQJob
	require.NoError(t, pool.DB.First(&final, "job_id = ?", "job-1").Error)
	assert.Equal(t, entity.DLQStatusFailed, final.Status)
	require.NotNil(t, final.FailedAt, "permanent failure is stamped")
}

func TestProcessDLQJobs_SkipsExhaustedAndFutureRetries(t *testing.T) {
	pool, _ := setupPool(t)
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	rows := []entity.DLQJob{
		{JobID: "exhausted", Type: "mystery", Status: entity.DLQStatusFailed, RetryCount: pool.DLQConfig.MaxRetryCount, ExpireAt: future},
		{JobID: "not-yet", Type: "mystery", Status: entity.DLQStatusFailed, RetryCount: 1, NextRetryAt: &future, ExpireAt: future},
	}
	for i := range rows {
		require.NoError(t, pool.DB.Create(&rows[i]).Error)
	}

	pool.processDLQJobs(ctx)

	// neither row was eligible, so neither was touched
	var exhausted, notYet entity.DLQJob
	require.NoError(t, pool.DB.First(&exhausted, "job_id = ?", "exhausted").Error)
	require.NoError(t, pool.DB.First(&notYet, "job_id = ?", "not-yet").Error)
	assert.Equal(t, pool.DLQConfig.MaxRetryCount, exhausted.RetryCount)
	assert.Equal(t, 1, notYet.RetryCount)
}

func TestWorkerPool_MovesExhaustedJobToDLQList(t *testing.T) {
	pool, rdb := setupPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a job whose type nobody handles fails immediately; MaxRetry 0 sends it
	// straight to the dead-letter list
	job := queue.Job{
		ID:       "doomed",
		Type:     "mystery",
		MaxRetry: 0,
		ExpireAt: time.Now().Add(time.Minute).Unix(),
	}

	producer := queue.NewProducer(rdb)
	require.NoError(t, producer.Enqueue(ctx, job))

	pool.Start(ctx)

	require.Eventually(t, func() bool {
		n, err := rdb.LLen(context.Background(), "priority_queue_dlq").Result()
		return err == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond, "the failed job should land in the DLQ list")

	cancel()
	pool.Wait()
}
