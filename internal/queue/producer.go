package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const QueueKey = "priority_queue"

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis *redis.Client
}

func NewProducer(redis *redis.Client) Producer {
	return &RedisProducer{Redis: redis}
}

func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// The score is the ready-at time: fresh jobs are ready immediately,
	// retries re-enter with their backoff deadline as the score.
	score := float64(job.CreatedAt)
	if score == 0 {
		score = float64(time.Now().Unix())
	}
	return p.Redis.ZAdd(ctx, QueueKey, redis.Z{
		Score:  score,
		Member: jobBytes,
	}).Err()
}
