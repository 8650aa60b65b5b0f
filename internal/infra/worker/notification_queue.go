package worker

import (
	"context"
	"fmt"

	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/infra/metrics"
)

const TaskNotificationDeliver = "notification:deliver"

// Deliverer sends one notification immediately.
type Deliverer interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// Compile-time check
var _ adapter.NotificationQueue = (*NotificationQueue)(nil)

// NotificationQueue is the in-process queue used by the memory driver. There
// are no retries; a failed delivery is only logged and counted.
type NotificationQueue struct {
	pool *Pool
	d    Deliverer
}

func NewNotificationQueue(pool *Pool, d Deliverer) *NotificationQueue {
	return &NotificationQueue{pool: pool, d: d}
}

func (q *NotificationQueue) Enqueue(_ context.Context, n model.Notification) error {
	err := q.pool.Submit(Task{
		Name: TaskNotificationDeliver,
		Run: func(ctx context.Context) error {
			if err := q.d.Deliver(ctx, n); err != nil {
				metrics.IncJob(TaskNotificationDeliver, "error")
				return err
			}
			metrics.IncJob(TaskNotificationDeliver, "ok")
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", n.Channel, err)
	}
	return nil
}
