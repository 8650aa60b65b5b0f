package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/infra/logging"
)

// Enqueuer is the part of *asynq.Client the producer uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Compile-time check
var _ adapter.NotificationQueue = (*Client)(nil)

// Client pushes notifications into redis for the job server.
type Client struct {
	enq Enqueuer
	log *zerolog.Logger
}

func NewClient(opt asynq.RedisClientOpt, logger *zerolog.Logger) *Client {
	return NewClientWith(asynq.NewClient(opt), logger)
}

func NewClientWith(enq Enqueuer, logger *zerolog.Logger) *Client {
	l := logger.With().Str("component", "queue_client").Logger()
	return &Client{enq: enq, log: &l}
}

func (c *Client) Enqueue(ctx context.Context, n model.Notification) error {
	task, err := NewDeliverTask(n)
	if err != nil {
		return fmt.Errorf("build %s task: %w", TaskNotificationDeliver, err)
	}
	info, err := c.enq.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskNotificationDeliver, err)
	}
	c.log.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("channel", string(n.Channel)).
		Str("to", logging.Redact(n.To)).
		Msg("notification queued")
	return nil
}

func (c *Client) Close() error { return c.enq.Close() }
