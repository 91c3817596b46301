package worker

import (
	"context"
	"fmt"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/queue"
	worker_handler "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/worker/worker-handler"
)

func HandleJob(ctx context.Context, job queue.Job) error {
	switch job.Type {
	case queue.JobNotifyNewChat:
		return worker_handler.HandleNotifyNewChat(job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
