package service

import "context"

// TaskQueue enqueues background work. Implementations wrap the asynq client;
// services stay unaware of the queue backend so tests can stub it out.
type TaskQueue interface {
	Enqueue(ctx context.Context, taskType string, payload []byte) error
}

// noopQueue drops every task. Used when a service is wired without a worker.
type noopQueue struct{}

func (noopQueue) Enqueue(ctx context.Context, taskType string, payload []byte) error { return nil }

// NoQueue is the TaskQueue that discards all tasks.
var NoQueue TaskQueue = noopQueue{}
