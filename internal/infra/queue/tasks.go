// Package queue runs background jobs on asynq: notification delivery with
// retries and the GTMM cron schedule.
package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"adtopia/internal/config"
	"adtopia/internal/domain/model"
	"adtopia/internal/infra/redis"
)

const (
	TaskNotificationDeliver = "notification:deliver"
	TaskGTMMRun             = "gtmm:run"
)

const (
	queueCritical = "critical"
	queueDefault  = "default"
	queueLow      = "low"
)

// GTMMPayload is one scheduled prompt run.
type GTMMPayload struct {
	Execute bool                `json:"execute"`
	Request model.PromptRequest `json:"request"`
}

func NewDeliverTask(n model.Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskNotificationDeliver,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(queueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

func NewGTMMTask(execute bool, req model.PromptRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(GTMMPayload{Execute: execute, Request: req})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskGTMMRun,
		payload,
		asynq.MaxRetry(1),
		asynq.Queue(queueLow),
		asynq.Timeout(2*time.Minute),
	), nil
}

// RedisOpt derives the asynq connection from the shared redis settings.
func RedisOpt(cfg *config.RedisConfig) (asynq.RedisClientOpt, error) {
	if !strings.Contains(cfg.URL, "://") {
		return asynq.RedisClientOpt{Addr: cfg.URL, Password: cfg.Password, DB: cfg.DB}, nil
	}
	opts, err := redis.Options(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("asynq redis: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}
