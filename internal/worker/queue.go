package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// AsynqQueue is the asynq-backed implementation of service.TaskQueue.
type AsynqQueue struct {
	client *asynq.Client
}

// NewAsynqQueue wraps an asynq client for enqueueing from the services.
func NewAsynqQueue(client *asynq.Client) *AsynqQueue {
	if client == nil {
		panic("asynq client cannot be nil for AsynqQueue")
	}
	return &AsynqQueue{client: client}
}

// Enqueue submits one task for background processing.
func (q *AsynqQueue) Enqueue(ctx context.Context, taskType string, payload []byte) error {
	task := asynq.NewTask(taskType, payload)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// Close releases the underlying asynq client connection.
func (q *AsynqQueue) Close() error {
	return q.client.Close()
}
